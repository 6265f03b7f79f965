package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ocrweb/internal/checkout"
)

func newProductsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List token bundles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			products, err := svc.Backend.Products(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTOKENS\tPRICE")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Tokens, p.PriceDisplay)
			}
			return tw.Flush()
		},
	}
}

func newBuyCmd(c *cli) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "buy <product-id>",
		Short: "Start a checkout and print the payment URL",
		Long: `Create a checkout session for the product and print the hosted payment
page URL. With --wait the command then polls the payment status until it
completes or the attempt budget runs out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			session, err := svc.Checkout.Start(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checkout: %s\n", session.CheckoutID)
			fmt.Fprintf(out, "Open to pay: %s\n", session.CheckoutURL)
			if !wait {
				fmt.Fprintf(out, "Then run: ocrctl wait %s\n", session.CheckoutID)
				return nil
			}
			return reportOutcome(cmd, svc.Reconciler.Reconcile(cmd.Context(), session.CheckoutID))
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll the payment status after creating the session")
	return cmd
}

func newWaitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <checkout-id>",
		Short: "Confirm a payment and credit the tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			return reportOutcome(cmd, svc.Reconciler.Reconcile(cmd.Context(), args[0]))
		},
	}
}

// reportOutcome prints the reconciliation result. A timeout is not an error:
// the payment may still settle and the balance will catch up.
func reportOutcome(cmd *cobra.Command, out checkout.Outcome) error {
	w := cmd.OutOrStdout()
	switch out.State {
	case checkout.StateCompleted:
		fmt.Fprintf(w, "Payment completed: %d tokens added\n", out.TokensGranted)
		return nil
	case checkout.StateTimedOut:
		fmt.Fprintf(w, "Payment still processing after %d checks; tokens will appear shortly\n", out.Attempts)
		return nil
	default:
		if out.Err != nil {
			return out.Err
		}
		return fmt.Errorf("payment %s", out.State)
	}
}
