// Package commands holds the attractions-scraper CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xsolare/trip-scheduler-scraper/internal/config"
	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/pipeline"
	"github.com/xsolare/trip-scheduler-scraper/internal/version"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		envFiles []string
		logLevel string
	)
	root := &cobra.Command{
		Use:           "attractions-scraper",
		Short:         "Collect TripAdvisor attraction records with a choice of scraping strategies.",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFiles...); err != nil {
				return err
			}
			logging.SetDefault()
			if logLevel != "" {
				logging.SetLevel(logging.ParseLevel(logLevel))
			}
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(newRunCmd(), newStrategiesCmd(), newVersionCmd())
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	err := NewRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "interrupted")
		return 130
	case pipeline.IsConfigError(err):
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		return 1
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}
