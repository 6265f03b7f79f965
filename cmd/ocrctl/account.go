package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocrweb/internal/domain"
)

func newTokensCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "Show the token balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Quota.Refresh(cmd.Context()); err != nil {
				return err
			}
			st := svc.Quota.Snapshot().Status
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Available: %d\n", st.TotalAvailable)
			fmt.Fprintf(out, "Free:      %d\n", st.FreeRemaining)
			fmt.Fprintf(out, "Paid:      %d\n", st.PaidTokens)
			if st.Blocked() {
				fmt.Fprintln(out, "No tokens left; see `ocrctl products`.")
			}
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the device id and signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			id, err := svc.Session.Current(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device:  %s\n", id.DeviceID)
			fmt.Fprintf(out, "Mode:    %s\n", id.Mode())
			if id.User != nil {
				fmt.Fprintf(out, "Account: %s (%s)\n", id.User.Phone, id.User.ID)
			}
			if id.HasInternalKey() {
				fmt.Fprintln(out, "Internal key: set")
			}
			return nil
		},
	}
}

func newSendCodeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "send-code <phone>",
		Short: "Text a verification code to a phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Auth.SendCode(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Code sent to %s\n", args[0])
			return nil
		},
	}
}

func newLoginCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login <phone> <code>",
		Short: "Sign in with a phone number and verification code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			result, err := svc.Auth.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := svc.Session.Login(cmd.Context(), result.AccessToken, result.User); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", result.User.Phone)
			return nil
		},
	}
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and continue as this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newInternalKeyCmd(c *cli) *cobra.Command {
	parent := &cobra.Command{
		Use:   "internal-key",
		Short: "Manage the quota bypass key for test accounts",
	}
	parent.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Store the internal key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Session.SetInternalKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Internal key stored")
			return nil
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Remove the internal key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Session.ClearInternalKey(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Internal key cleared")
			return nil
		},
	})
	return parent
}

// blockedError explains how to get more tokens.
type blockedError struct{}

func (blockedError) Error() string { return domain.ErrQuotaBlocked.Error() }

func (blockedError) UserMessage() string {
	return "No tokens remaining. Run `ocrctl products` and `ocrctl buy <product-id>` to buy more."
}

func (blockedError) Is(target error) bool { return target == domain.ErrQuotaBlocked }
