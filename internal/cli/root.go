// Package cli implements storectl, the operator CLI for the store tier
// service.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/adapter/backend"
	"github.com/couchcryptid/store-tier-service/internal/ingest"
	"github.com/couchcryptid/store-tier-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	BaseURL string
	Timeout time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for storectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storectl",
		Short: "Inspect and classify retail store records",
		Long: `storectl queries the field-operations backend for store records,
classifies them into performance tiers, and checks store-list dumps for
data-quality problems.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	baseURL := os.Getenv("BACKEND_BASE_URL")
	if baseURL == "" {
		baseURL = backend.DefaultBaseURL
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", baseURL, "backend base URL")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "backend request timeout")

	cmd.AddCommand(NewStoresCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewInsightsCommand(opts))
	cmd.AddCommand(NewFeedbackCommand(opts))
	cmd.AddCommand(NewHealthCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// service builds an ingest service against the configured backend. Verbose
// mode sends debug logs to errOut.
func (o *RootOptions) service(errOut io.Writer) (*ingest.Service, error) {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	client, err := backend.NewClient(o.BaseURL, o.Timeout, "storectl/1.0", logger, metrics)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid backend URL", err)
	}
	return ingest.NewService(client, logger, metrics), nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
