package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/riskledger/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Fix    bool
	Output string
}

// PacketIssue is one schema violation in CLI output form.
type PacketIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationReport holds validation results for a packet.
type ValidationReport struct {
	Packet string        `json:"packet"`
	Valid  bool          `json:"valid"`
	Fixed  bool          `json:"fixed,omitempty"`
	Issues []PacketIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <packet-file>",
		Short: "Validate a packet against the schema",
		Long: `Validate a research packet against the embedded schema.

Checks the packet's shape: required top-level keys, date formats, known
phase and confidence labels, score types, and cluster and update
structure. Violations are reported with source positions.

With --fix, known upstream glitches are repaired first (bare score
words, trailing "+" on numbers, unknown phase or confidence labels,
out-of-range scores, missing uids, markdown-wrapped source links) and
the repaired packet is written to --output, or back in place, before
being re-validated.

Exit codes:
  0 - Packet conforms
  1 - Packet has schema violations
  2 - Command error (unreadable file, write failure)

Examples:
  riskledger validate ./packets/2025-09-24.packet.json
  riskledger validate ./packets/latest.packet.json --fix
  riskledger validate ./draft.packet.json --fix -o ./fixed.packet.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "repair known glitches before validating")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the repaired packet here instead of in place")

	return cmd
}

func runValidate(opts *ValidateOptions, packetPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(packetPath)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, fmt.Sprintf("reading packet: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to read packet", err)
	}

	fixed := false
	if opts.Fix {
		repaired, err := repairPacket(data)
		if err != nil {
			// Unparseable JSON cannot be repaired; validate the original and
			// let the report carry the parse issue.
			formatter.VerboseLog("Repair skipped: %v", err)
		} else {
			outPath := opts.Output
			if outPath == "" {
				outPath = packetPath
			}
			if err := os.WriteFile(outPath, repaired, 0644); err != nil {
				_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing repaired packet: %v", err), nil)
				return WrapExitError(ExitCommandError, "failed to write repaired packet", err)
			}
			formatter.VerboseLog("Wrote repaired packet to %s", outPath)
			data = repaired
			fixed = true
		}
	}

	issues := schema.Validate(data)
	report := ValidationReport{
		Packet: packetPath,
		Valid:  len(issues) == 0,
		Fixed:  fixed,
	}
	for _, issue := range issues {
		line := 0
		if issue.Pos.IsValid() {
			line = issue.Pos.Line()
		}
		report.Issues = append(report.Issues, PacketIssue{
			Field:   issue.Field,
			Message: issue.Message,
			Line:    line,
		})
	}

	return outputValidationReport(formatter, report)
}

// repairPacket applies the textual fixes, decodes, repairs field-level
// glitches in place, and re-encodes with stable two-space formatting.
func repairPacket(data []byte) ([]byte, error) {
	cleaned := schema.FixText(data)

	var packet map[string]any
	if err := json.Unmarshal(cleaned, &packet); err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}
	schema.Repair(packet)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(packet); err != nil {
		return nil, fmt.Errorf("encode packet: %w", err)
	}
	return buf.Bytes(), nil
}

// outputValidationReport renders the report and maps violations to exit
// codes.
func outputValidationReport(formatter *OutputFormatter, report ValidationReport) error {
	if formatter.Format == "json" {
		if report.Valid {
			return formatter.Success(report)
		}

		response := CLIResponse{
			Status: "error",
			Data:   report,
			Error: &CLIError{
				Code:    ErrCodeBadPacket,
				Message: report.Issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(report.Issues)))
	}

	// Text format
	if report.Valid {
		if report.Fixed {
			fmt.Fprintln(formatter.Writer, "✓ Packet valid (repairs applied)")
		} else {
			fmt.Fprintln(formatter.Writer, "✓ Packet valid")
		}
		return nil
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range report.Issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Field, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(report.Issues)))
}
