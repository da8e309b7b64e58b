package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/spf13/cobra"
)

type insightsResult struct {
	StoreID  int64            `json:"store_id"`
	Count    int              `json:"count"`
	Insights []domain.Insight `json:"insights"`
}

// NewInsightsCommand creates the insights command.
func NewInsightsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insights <store-id>",
		Short: "Show AI-generated insights for a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseStoreID(args[0])
			if err != nil {
				_ = f.Error(err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid store id", err)
			}
			svc, err := rootOpts.service(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			insights, err := svc.Insights(commandContext(cmd), id)
			if err != nil {
				var decodeErr *domain.DecodeError
				if errors.As(err, &decodeErr) {
					_ = f.Error("undecodable insights response: "+decodeErr.Reason().String(), decodeErr.Attempts)
					return WrapExitError(ExitFailure, "decode insights", err)
				}
				return backendFailure(f, "fetch insights", err)
			}

			result := insightsResult{StoreID: id, Count: len(insights), Insights: insights}
			return f.Success(result, func(w io.Writer) {
				if len(insights) == 0 {
					fmt.Fprintf(w, "No insights for store %d\n", id)
					return
				}
				for i, in := range insights {
					if i > 0 {
						fmt.Fprintln(w)
					}
					fmt.Fprintf(w, "Store %d  %s  priority: %s\n", in.StoreID, in.AnalyzedAt, in.Priority)
					writeSection(w, "Alerts", in.Alerts)
					writeSection(w, "Insights", in.Insights)
					writeSection(w, "Recommendations", in.Recommendations)
				}
			})
		},
	}
}

func writeSection(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(w, "    - %s\n", l)
	}
}

// FeedbackOptions holds flags for the feedback command.
type FeedbackOptions struct {
	*RootOptions
	domain.Feedback
}

// NewFeedbackCommand creates the feedback command.
func NewFeedbackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeedbackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "feedback <store-id>",
		Short: "Submit collaborator feedback for a store",
		Long: `Submit collaborator feedback for a store.

The payload is validated locally before anything is sent: the collaborator
and comment are required, the comment is limited to ` + strconv.Itoa(domain.MaxCommentLength) + ` characters, and
category and urgency must be one of the accepted values.`,
		Example: `  storectl feedback 12 --collaborator ana --comment "Freezer roto" --category infraestructura --urgency alta`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Collaborator, "collaborator", "", "reporting collaborator (required)")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "feedback comment (required)")
	cmd.Flags().StringVar(&opts.Category, "category", "otro", "category ("+strings.Join(domain.FeedbackCategories, "|")+")")
	cmd.Flags().StringVar(&opts.Urgency, "urgency", "media", "urgency ("+strings.Join(domain.UrgencyLevels, "|")+")")

	return cmd
}

func runFeedback(cmd *cobra.Command, opts *FeedbackOptions, rawID string) error {
	f := opts.formatter(cmd)

	id, err := parseStoreID(rawID)
	if err != nil {
		_ = f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid store id", err)
	}
	svc, err := opts.service(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	receipt, err := svc.SubmitFeedback(commandContext(cmd), domain.StoreRecord{ID: id}, opts.Feedback)
	var invalid *domain.InvalidRecordError
	switch {
	case err == nil:
	case errors.As(err, &invalid), errors.Is(err, domain.ErrInvalidFeedback):
		_ = f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "feedback rejected", err)
	default:
		return backendFailure(f, "submit feedback", err)
	}

	return f.Success(receipt, func(w io.Writer) {
		msg := receipt.Message
		if msg == "" {
			msg = "Feedback submitted"
		}
		fmt.Fprintln(w, msg)
		if receipt.Analysis != nil && receipt.Analysis.Generated {
			fmt.Fprintf(w, "Analysis priority: %s\n", receipt.Analysis.Priority)
			if receipt.Analysis.Summary != "" {
				fmt.Fprintf(w, "  %s\n", receipt.Analysis.Summary)
			}
		}
	})
}

type healthResult struct {
	BaseURL string `json:"base_url"`
	Healthy bool   `json:"healthy"`
}

// NewHealthCommand creates the health command. It exits 1 when the backend
// is unhealthy.
func NewHealthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable and healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			svc, err := rootOpts.service(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			healthy := svc.Health(commandContext(cmd))
			result := healthResult{BaseURL: rootOpts.BaseURL, Healthy: healthy}
			if err := f.Success(result, func(w io.Writer) {
				if healthy {
					fmt.Fprintf(w, "%s is healthy\n", rootOpts.BaseURL)
				} else {
					fmt.Fprintf(w, "%s is unhealthy\n", rootOpts.BaseURL)
				}
			}); err != nil {
				return err
			}
			if !healthy {
				return NewExitError(ExitFailure, "backend unhealthy")
			}
			return nil
		},
	}
}

// parseStoreID accepts the decimal id used in backend paths. Zero and
// negative ids parse; writes reject them later.
func parseStoreID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("store id %q is not an integer", s)
	}
	return id, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
