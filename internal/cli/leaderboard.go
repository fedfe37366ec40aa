package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/riskledger/internal/event"
	"github.com/roach88/riskledger/internal/registry"
	"github.com/roach88/riskledger/internal/store"
)

// LeaderboardOptions holds flags for the leaderboard command.
type LeaderboardOptions struct {
	*RootOptions
	Database string
	AsOf     string
}

// NewLeaderboardCommand creates the leaderboard command.
func NewLeaderboardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LeaderboardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank the stored registry's active risks",
		Long: `Derive the leaderboard from the stored registry without ingesting.

Active-phase events are ranked by score, then confidence, then recency,
deduplicated by fingerprint and by cluster:title, and capped at ten.
The --as-of date only stamps the output; it defaults to the registry's
last rebuild date.

Exit codes:
  0 - Leaderboard produced
  2 - Command error (bad --as-of, database errors)

Examples:
  riskledger leaderboard --db ./risk.db
  riskledger leaderboard --db ./risk.db --as-of 2025-09-24
  riskledger leaderboard --db ./risk.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "date to stamp on the leaderboard (YYYY-MM-DD)")

	return cmd
}

func runLeaderboard(opts *LeaderboardOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	asOf := opts.AsOf
	if asOf != "" {
		if _, err := event.ParseDate(asOf); err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("invalid --as-of: %v", err), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --as-of %q", asOf), err)
		}
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

	reg, err := st.LoadRegistry(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load registry", err)
	}
	if asOf == "" {
		asOf = reg.LastRebuild
	}

	lb := registry.BuildLeaderboard(reg.Events, asOf)
	return outputLeaderboard(formatter, lb)
}

// outputLeaderboard renders the ranked risks.
func outputLeaderboard(formatter *OutputFormatter, lb *registry.Leaderboard) error {
	if formatter.Format == "json" {
		return formatter.Success(lb)
	}

	w := formatter.Writer
	if lb.AsOf != "" {
		fmt.Fprintf(w, "Leaderboard (as_of %s)\n", lb.AsOf)
	} else {
		fmt.Fprintln(w, "Leaderboard")
	}
	fmt.Fprintf(w, "%s\n\n", lb.Note)

	if len(lb.Risks) == 0 {
		fmt.Fprintln(w, "No active risks.")
		return nil
	}

	for i, risk := range lb.Risks {
		fmt.Fprintf(w, "%2d. %5.1f  %-9s %s\n", i+1, risk.Score, risk.Phase, risk.Name)
		if formatter.Verbose {
			fmt.Fprintf(w, "    uid=%s cluster=%s updated=%s\n", risk.ID, risk.Cluster, risk.LastUpdated)
		}
	}
	return nil
}
