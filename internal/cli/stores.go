package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/spf13/cobra"
)

// StoresOptions holds flags for the stores command.
type StoresOptions struct {
	*RootOptions
	Tier        string
	Search      string
	Problematic bool
}

type storesResult struct {
	Count  int                `json:"count"`
	Tier   string             `json:"tier"`
	Search string             `json:"search,omitempty"`
	Stores []domain.StoreView `json:"stores"`
}

// NewStoresCommand creates the stores command.
func NewStoresCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoresOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List stores with their performance tier",
		Long: `List the stores known to the backend, classified into tiers.

Results can be narrowed by tier and by a case-insensitive search over the
store name. Stores are sorted by name.`,
		Example: `  storectl stores
  storectl stores --tier needs_attention
  storectl stores --q "centro" --format json
  storectl stores --problematic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStores(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Tier, "tier", "all", "filter by tier (all|excellent|good|needs_attention)")
	cmd.Flags().StringVar(&opts.Search, "q", "", "search store names")
	cmd.Flags().BoolVar(&opts.Problematic, "problematic", false, "list the backend's problem stores instead of all stores")

	return cmd
}

func runStores(cmd *cobra.Command, opts *StoresOptions) error {
	f := opts.formatter(cmd)

	tier, err := domain.ParseTier(opts.Tier)
	if err != nil {
		_ = f.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --tier", err)
	}

	records, err := fetchStores(cmd, opts.RootOptions, opts.Problematic)
	if err != nil {
		return backendFailure(f, "fetch stores", err)
	}
	f.VerboseLog("fetched %d stores", len(records))

	matched := domain.Query(records, tier, opts.Search)
	rows := domain.NewStoreViews(matched)

	tierName := string(tier)
	if tier == domain.AllTiers {
		tierName = "all"
	}
	result := storesResult{Count: len(rows), Tier: tierName, Search: opts.Search, Stores: rows}

	return f.Success(result, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTIER\tNPS\tDAMAGE\tOUT OF STOCK\tCOLLABORATOR")
		for _, r := range rows {
			id := fmt.Sprint(r.ID)
			if !r.ValidID {
				id = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.2f\t%.2f\t%s\n",
				id, r.Name, r.TierLabel, r.NPS, r.DamageRate, r.OutOfStockRate, r.Collaborator)
		}
		_ = tw.Flush()
		fmt.Fprintf(w, "\n%d stores\n", len(rows))
	})
}

func fetchStores(cmd *cobra.Command, opts *RootOptions, problematic bool) ([]domain.StoreRecord, error) {
	svc, err := opts.service(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	ctx := commandContext(cmd)
	if problematic {
		return svc.ProblemStores(ctx)
	}
	return svc.Stores(ctx)
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize store tiers and metric averages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			records, err := fetchStores(cmd, rootOpts, false)
			if err != nil {
				return backendFailure(f, "fetch stores", err)
			}
			s := domain.Summarize(records)

			return f.Success(s, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "Total\t%d\n", s.Total)
				for _, t := range domain.Tiers {
					fmt.Fprintf(tw, "%s\t%d\n", t.Label(), s.Count(t))
				}
				fmt.Fprintf(tw, "Invalid ids\t%d\n", s.InvalidIDs)
				fmt.Fprintf(tw, "Average NPS\t%.1f (min %.1f, max %.1f)\n", s.AverageNPS, s.MinNPS, s.MaxNPS)
				fmt.Fprintf(tw, "Average damage rate\t%.2f\n", s.AverageDamageRate)
				fmt.Fprintf(tw, "Average out of stock\t%.2f\n", s.AverageOutOfStockRate)
				fmt.Fprintf(tw, "Average resolution hours\t%.1f\n", s.AverageComplaintResolutionHours)
				_ = tw.Flush()
			})
		},
	}
}
