package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/riskledger/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded ingestion runs",
		Long: `List the audit trail of ingestion runs, newest first.

Every successful ingest records one row: the run id, the packet it
consumed, its as_of date, and the created, merged, fuzzy-matched,
deduped, and decayed counts.

Examples:
  riskledger runs --db ./risk.db
  riskledger runs --db ./risk.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
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

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	return outputRuns(formatter, runs)
}

// outputRuns renders the audit trail.
func outputRuns(formatter *OutputFormatter, runs []store.Run) error {
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No ingestion runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "Ingestion runs: %d\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s\n", run.RecordedAt, run.RunID)
		fmt.Fprintf(w, "  packet %s (as_of %s)\n", run.Packet, run.AsOf)
		fmt.Fprintf(w, "  created %d, merged %d, fuzzy-matched %d, deduped %d, decayed %d\n",
			run.Created, run.Merged, run.FuzzyMatched, run.Deduped, run.Decayed)
	}
	return nil
}
