// Package harness runs YAML-defined conformance scenarios against the real
// ingestion pipeline.
//
// A scenario seeds a registry (or starts fresh), ingests a sequence of
// packet files, and then checks assertions against the final registry, the
// per-run summaries, and the leaderboard. Run IDs are pinned or sequential,
// so two executions of the same scenario produce identical results and the
// whole outcome can be compared against a golden snapshot.
package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/riskledger/internal/event"
	"github.com/roach88/riskledger/internal/ingest"
	"github.com/roach88/riskledger/internal/registry"
	"github.com/roach88/riskledger/internal/store"
	"github.com/roach88/riskledger/internal/testutil"
)

// RunSummary records what one packet ingestion did.
type RunSummary struct {
	RunID        string `json:"run_id"`
	Packet       string `json:"packet"`
	AsOf         string `json:"as_of"`
	Created      int    `json:"created"`
	Merged       int    `json:"merged"`
	FuzzyMatched int    `json:"fuzzy_matched"`
	Decayed      int    `json:"decayed"`
	Deduped      int    `json:"deduped"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: true if all assertions held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Registry is the final registry state after all packets.
	Registry *event.Registry `json:"registry"`

	// Runs summarizes each packet ingestion, in packet order.
	Runs []RunSummary `json:"runs"`

	// Leaderboard is the ranked projection from the final run.
	Leaderboard *registry.Leaderboard `json:"leaderboard"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Runs:   []RunSummary{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// The registry lives in memory for the scenario's lifetime; persistence is
// not involved. Pipeline logs are discarded so scenario runs stay quiet
// under go test.
//
// Execution flow:
//  1. Load the seed registry, or start fresh
//  2. Ingest each packet through the real pipeline, in order
//  3. Evaluate assertions against the final state and run summaries
func Run(scenario *Scenario) (*Result, error) {
	reg, err := loadSeedRegistry(scenario.Registry)
	if err != nil {
		return nil, err
	}

	var runIDs ingest.RunIDGenerator
	if len(scenario.RunIDs) > 0 {
		runIDs = ingest.NewFixedGenerator(scenario.RunIDs...)
	} else {
		runIDs = testutil.NewSequenceRunIDs("run")
	}

	pipeline := ingest.New(
		ingest.WithRunIDGenerator(runIDs),
		ingest.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := NewResult()
	for i, packetPath := range scenario.Packets {
		data, err := os.ReadFile(packetPath)
		if err != nil {
			return nil, fmt.Errorf("packet %d: failed to read %s: %w", i, packetPath, err)
		}
		packet, err := ingest.ParsePacket(data)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %s rejected: %w", i, filepath.Base(packetPath), err)
		}

		res := pipeline.Ingest(reg, packet)
		result.Runs = append(result.Runs, RunSummary{
			RunID:        res.RunID,
			Packet:       filepath.Base(packetPath),
			AsOf:         res.AsOf,
			Created:      res.Created,
			Merged:       res.Merged,
			FuzzyMatched: res.FuzzyMatched,
			Decayed:      res.Decayed,
			Deduped:      res.Deduped,
		})
		result.Leaderboard = res.Leaderboard
	}
	result.Registry = reg

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// loadSeedRegistry reads a registry interchange file, or returns a fresh
// registry when no path is given.
func loadSeedRegistry(path string) (*event.Registry, error) {
	if path == "" {
		return event.NewRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed registry: %w", err)
	}
	reg, err := store.UnmarshalRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("seed registry %s: %w", filepath.Base(path), err)
	}
	return reg, nil
}
