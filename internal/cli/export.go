package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/riskledger/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Output   string
}

// ExportSummary holds the reported outcome of an export.
type ExportSummary struct {
	Output string `json:"output"`
	Events int    `json:"events"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the registry as a JSON file",
		Long: `Export the stored registry as stable, human-diffable JSON.

The output is the registry interchange format: two-space indent, no
HTML escaping, events in stored order. Without --output the registry
streams to stdout as-is, regardless of --format, so it can be piped
straight into files or external renderers.

Exit codes:
  0 - Registry exported
  2 - Command error (database errors, write failure)

Examples:
  riskledger export --db ./risk.db -o ./events.json
  riskledger export --db ./risk.db > events.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the registry here instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
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

	reg, err := st.LoadRegistry(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load registry", err)
	}

	data, err := store.MarshalRegistry(reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to marshal registry", err)
	}

	if opts.Output == "" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return WrapExitError(ExitCommandError, "failed to write registry", err)
		}
		return nil
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing registry: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to write registry", err)
	}

	summary := ExportSummary{Output: opts.Output, Events: len(reg.Events)}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	fmt.Fprintf(formatter.Writer, "✓ Exported %d event(s) to %s\n", summary.Events, summary.Output)
	return nil
}
