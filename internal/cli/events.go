package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/riskledger/internal/query"
	"github.com/roach88/riskledger/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Database string
	Phase    string
	Cluster  string
	MinScore float64
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query stored events",
		Long: `Query the stored event registry with optional filters.

Filters combine as a conjunction: an event must match every filter
given. Phase and cluster values are canonicalized before matching, so
"Elevated" and "elevated" select the same rows. Results are ordered
newest first, with uid as the tie-break.

Exit codes:
  0 - Query executed (zero matches is still success)
  2 - Command error (filter rejected, database errors)

Examples:
  riskledger events --db ./risk.db
  riskledger events --db ./risk.db --phase elevated
  riskledger events --db ./risk.db --cluster energy --min-score 60
  riskledger events --db ./risk.db --phase watch --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Phase, "phase", "", "only events in this lifecycle phase")
	cmd.Flags().StringVar(&opts.Cluster, "cluster", "", "only events in this cluster")
	cmd.Flags().Float64Var(&opts.MinScore, "min-score", 0, "only events at or above this score")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	filter := buildEventFilter(opts, cmd.Flags().Changed("min-score"))

	// A filter that can never match gets rejected up front, instead of
	// running and returning a silently empty result.
	if result := query.Validate(filter); !result.OK {
		_ = formatter.Error(ErrCodeBadFilter, strings.Join(result.Warnings, "; "), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid filter: %s", strings.Join(result.Warnings, "; ")))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("opening database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := st.QueryEvents(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query events", err)
	}

	return outputEvents(formatter, rows)
}

// buildEventFilter assembles the conjunction from set flags. No flags
// means no filter.
func buildEventFilter(opts *EventsOptions, minScoreSet bool) query.Filter {
	var filters []query.Filter
	if opts.Phase != "" {
		filters = append(filters, query.PhaseIs{Phase: opts.Phase})
	}
	if opts.Cluster != "" {
		filters = append(filters, query.ClusterIs{Cluster: opts.Cluster})
	}
	if minScoreSet {
		filters = append(filters, query.MinScore{Score: opts.MinScore})
	}

	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return query.And{Filters: filters}
	}
}

// outputEvents renders the query result.
func outputEvents(formatter *OutputFormatter, rows []store.EventSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(rows)
	}

	w := formatter.Writer
	if len(rows) == 0 {
		fmt.Fprintln(w, "No events match.")
		return nil
	}

	fmt.Fprintf(w, "Events: %d match(es)\n\n", len(rows))
	for _, row := range rows {
		fmt.Fprintf(w, "%6.1f  %-9s %s\n", row.Score, row.Phase, row.Title)
		fmt.Fprintf(w, "        uid=%s cluster=%s updated=%s\n", row.UID, row.Cluster, row.LastUpdated)
	}
	return nil
}
