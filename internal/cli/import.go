package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/riskledger/internal/event"
	"github.com/roach88/riskledger/internal/registry"
	"github.com/roach88/riskledger/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportSummary holds the reported outcome of an import.
type ImportSummary struct {
	File      string `json:"file"`
	Events    int    `json:"events"`
	Collapsed int    `json:"collapsed"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <registry-file>",
		Short: "Import a registry JSON file",
		Long: `Import a registry interchange file, replacing the stored registry.

The file's events are recanonicalized and deduplicated before they are
persisted, so a hand-edited or externally produced registry lands in
the same state an ingestion run would leave it in. Events that turn out
to share a fingerprint are merged under newer-wins.

Exit codes:
  0 - Registry imported
  1 - Registry file rejected (malformed JSON)
  2 - Command error (unreadable file, database errors)

Examples:
  riskledger import --db ./risk.db ./events.json
  riskledger import --db ./fresh.db ./backup/events.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, registryPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(registryPath)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, fmt.Sprintf("reading registry: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to read registry", err)
	}

	reg, err := store.UnmarshalRegistry(data)
	if err != nil {
		_ = formatter.Error(ErrCodeBadRegistry, err.Error(), nil)
		return WrapExitError(ExitFailure, "registry rejected", err)
	}
	if reg.Version == 0 {
		reg.Version = event.RegistryVersion
	}

	loaded := len(reg.Events)
	deduped, _ := registry.Dedupe(reg.Events)
	reg.Events = deduped
	collapsed := loaded - len(deduped)
	if collapsed > 0 {
		slog.Info("collapsed duplicate events", "file", registryPath, "collapsed", collapsed)
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

	if err := st.SaveRegistry(ctx, reg); err != nil {
		return WrapExitError(ExitCommandError, "failed to save registry", err)
	}

	summary := ImportSummary{File: registryPath, Events: len(reg.Events), Collapsed: collapsed}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	if summary.Collapsed > 0 {
		fmt.Fprintf(formatter.Writer, "✓ Imported %d event(s) from %s (%d collapsed)\n",
			summary.Events, summary.File, summary.Collapsed)
	} else {
		fmt.Fprintf(formatter.Writer, "✓ Imported %d event(s) from %s\n", summary.Events, summary.File)
	}
	return nil
}
