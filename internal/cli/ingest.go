package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/riskledger/internal/ingest"
	"github.com/roach88/riskledger/internal/registry"
	"github.com/roach88/riskledger/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Database string
	Dir      string
	Packet   string
}

// IngestSummary is the reported outcome of one ingestion run.
type IngestSummary struct {
	RunID        string                `json:"run_id"`
	Packet       string                `json:"packet"`
	AsOf         string                `json:"as_of"`
	Created      int                   `json:"created"`
	Merged       int                   `json:"merged"`
	FuzzyMatched int                   `json:"fuzzy_matched"`
	Decayed      int                   `json:"decayed"`
	Deduped      int                   `json:"deduped"`
	Events       int                   `json:"events"`
	Leaderboard  *registry.Leaderboard `json:"leaderboard"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a research packet into the registry",
		Long: `Ingest a research packet into the risk event registry.

Each update in the packet is reconciled against the stored registry:
exact fingerprint match first, then fuzzy match over identity fields
and title, then creation of a new event. Stale events decay toward the
baseline, the leaderboard is rebuilt, and the updated registry is
persisted in one transaction along with an audit row for the run.

With --dir, the newest usable *.packet.json in the directory is chosen
by as_of date; unusable candidates are skipped with a diagnostic.

Exit codes:
  0 - Packet ingested
  1 - Packet rejected (malformed JSON, missing keys, bad as_of)
  2 - Command error (bad flags, unreadable paths, database errors)

Examples:
  riskledger ingest --db ./risk.db --dir ./packets
  riskledger ingest --db ./risk.db --packet ./2025-09-24.packet.json
  riskledger ingest --db ./risk.db --dir ./packets --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "directory to scan for the newest packet")
	cmd.Flags().StringVar(&opts.Packet, "packet", "", "ingest this packet file")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if (opts.Dir == "") == (opts.Packet == "") {
		return NewExitError(ExitCommandError, "exactly one of --dir or --packet is required")
	}

	packetPath := opts.Packet
	var data []byte
	var err error
	if packetPath != "" {
		data, err = os.ReadFile(packetPath)
		if err != nil {
			_ = formatter.Error(ErrCodeReadFailed, fmt.Sprintf("reading packet: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to read packet", err)
		}
	} else {
		packetPath, data, err = ingest.SelectLatestPacket(opts.Dir, slog.Default())
		if err != nil {
			_ = formatter.Error(ErrCodeNoPackets, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to select packet", err)
		}
	}
	formatter.VerboseLog("Selected packet: %s", packetPath)

	packet, err := ingest.ParsePacket(data)
	if err != nil {
		_ = formatter.Error(ErrCodeBadPacket, err.Error(), nil)
		return WrapExitError(ExitFailure, "packet rejected", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("opening database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := st.LoadRegistry(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load registry", err)
	}

	res := ingest.New().Ingest(reg, packet)

	if err := st.SaveRegistry(ctx, reg); err != nil {
		return WrapExitError(ExitCommandError, "failed to save registry", err)
	}
	if err := st.RecordRun(ctx, store.Run{
		RunID:        res.RunID,
		Packet:       filepath.Base(packetPath),
		AsOf:         res.AsOf,
		Created:      res.Created,
		Merged:       res.Merged,
		FuzzyMatched: res.FuzzyMatched,
		Decayed:      res.Decayed,
		Deduped:      res.Deduped,
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	return outputIngestSummary(formatter, IngestSummary{
		RunID:        res.RunID,
		Packet:       filepath.Base(packetPath),
		AsOf:         res.AsOf,
		Created:      res.Created,
		Merged:       res.Merged,
		FuzzyMatched: res.FuzzyMatched,
		Decayed:      res.Decayed,
		Deduped:      res.Deduped,
		Events:       len(reg.Events),
		Leaderboard:  res.Leaderboard,
	})
}

// outputIngestSummary renders the run summary.
func outputIngestSummary(formatter *OutputFormatter, summary IngestSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Ingested %s (as_of %s)\n", summary.Packet, summary.AsOf)
	fmt.Fprintf(w, "  Created: %d  Merged: %d  Fuzzy-matched: %d  Decayed: %d\n",
		summary.Created, summary.Merged, summary.FuzzyMatched, summary.Decayed)
	if summary.Deduped > 0 {
		fmt.Fprintf(w, "  Collapsed %d duplicate event(s)\n", summary.Deduped)
	}
	fmt.Fprintf(w, "  Registry: %d event(s)\n", summary.Events)

	if summary.Leaderboard != nil && len(summary.Leaderboard.Risks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top risks:")
		for i, risk := range summary.Leaderboard.Risks {
			fmt.Fprintf(w, "  %2d. %5.1f  %-9s %s\n", i+1, risk.Score, risk.Phase, risk.Name)
		}
	}
	return nil
}
