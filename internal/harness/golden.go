package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/riskledger/internal/event"
	"github.com/roach88/riskledger/internal/registry"
)

// Snapshot captures the complete outcome of a scenario execution: the run
// summaries, the final registry, and the final leaderboard. Rendering is
// deterministic, so the snapshot can be compared byte-for-byte against a
// golden file.
type Snapshot struct {
	Scenario    string                `json:"scenario"`
	Runs        []RunSummary          `json:"runs"`
	Registry    *event.Registry       `json:"registry"`
	Leaderboard *registry.Leaderboard `json:"leaderboard"`
}

// marshalSnapshot renders a snapshot the way registry interchange files are
// rendered: two-space indent, no HTML escaping, trailing newline.
func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file at testdata/golden/{scenario.Name}.golden, then returns the
// result so callers can also check assertions.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's snapshot against the golden file for the
// given scenario name. Useful when the scenario has already run.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := &Snapshot{
		Scenario:    scenarioName,
		Runs:        result.Runs,
		Registry:    result.Registry,
		Leaderboard: result.Leaderboard,
	}
	data, err := marshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
