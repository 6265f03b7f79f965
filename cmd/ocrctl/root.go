package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrweb/internal/bootstrap"
	"ocrweb/internal/infra"
)

// opener builds the services for one command invocation.
type opener func(ctx context.Context, verbose bool) (*bootstrap.Services, error)

func defaultOpener(ctx context.Context, verbose bool) (*bootstrap.Services, error) {
	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv)
	if !verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}
	return bootstrap.New(ctx, cfg, &logger, bootstrap.Options{ExportFiles: true})
}

type cli struct {
	open    opener
	verbose bool
	svc     *bootstrap.Services
}

func (c *cli) services(cmd *cobra.Command) (*bootstrap.Services, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	svc, err := c.open(cmd.Context(), c.verbose)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func (c *cli) close() {
	if c.svc != nil {
		_ = c.svc.Close()
		c.svc = nil
	}
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "ocrctl",
		Short:         "Document OCR client",
		Long:          `ocrctl converts PDFs and images to Markdown through the OCR backend and manages the token balance that pays for it.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newTokensCmd(c),
		newWhoamiCmd(c),
		newProcessCmd(c),
		newRenderCmd(),
		newProductsCmd(c),
		newBuyCmd(c),
		newWaitCmd(c),
		newSendCodeCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newInternalKeyCmd(c),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ocrctl %s\n", Version)
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
