package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: an optional seed registry, a
// sequence of packets to ingest, and assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file
	// name for snapshot comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Registry is an optional path to a registry interchange file used as
	// the starting state. Relative paths resolve against the scenario file
	// location. Empty means start from a fresh registry.
	Registry string `yaml:"registry,omitempty"`

	// Packets lists packet files to ingest, in order.
	// Paths are relative to the scenario file location.
	Packets []string `yaml:"packets"`

	// RunIDs optionally pins the run ID of each ingestion, one per packet.
	// If empty, runs get sequential IDs (run-001, run-002, ...).
	RunIDs []string `yaml:"run_ids,omitempty"`

	// Assertions validate the final registry and the run summaries.
	// Supported types: event_count, event, run_counts, leaderboard
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_count": the final registry holds exactly Count events
	// - "event": the event with UID matches Expect (subset match)
	// - "run_counts": the run at index Run matches Expect (subset match)
	// - "leaderboard": the final leaderboard ranks exactly UIDs, in order
	Type string `yaml:"type"`

	// Count is the expected number of events (used by event_count).
	Count int `yaml:"count,omitempty"`

	// UID selects the event to check (used by event).
	UID string `yaml:"uid,omitempty"`

	// Run is the zero-based packet index (used by run_counts).
	Run int `yaml:"run,omitempty"`

	// Expect contains expected field values (used by event, run_counts).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// UIDs is the expected ranked order of leaderboard entries
	// (used by leaderboard).
	UIDs []string `yaml:"uids,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount  = "event_count"
	AssertEvent       = "event"
	AssertRunCounts   = "run_counts"
	AssertLeaderboard = "leaderboard"
)

// LoadScenario reads and parses a scenario YAML file. Registry and packet
// paths are resolved relative to the scenario file's directory. Returns an
// error if the file doesn't exist, is malformed, contains unknown fields
// (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if scenario.Registry != "" && !filepath.IsAbs(scenario.Registry) {
		scenario.Registry = filepath.Join(base, scenario.Registry)
	}
	for i, packetPath := range scenario.Packets {
		if !filepath.IsAbs(packetPath) {
			scenario.Packets[i] = filepath.Join(base, packetPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Packets) == 0 {
		return fmt.Errorf("packets list is required and must be non-empty")
	}
	if len(s.RunIDs) > 0 && len(s.RunIDs) != len(s.Packets) {
		return fmt.Errorf("run_ids must have one entry per packet (%d run_ids, %d packets)",
			len(s.RunIDs), len(s.Packets))
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Registry != "" {
		if _, err := os.Stat(s.Registry); os.IsNotExist(err) {
			return fmt.Errorf("registry file not found: %s", s.Registry)
		}
	}
	for _, packetPath := range s.Packets {
		if _, err := os.Stat(packetPath); os.IsNotExist(err) {
			return fmt.Errorf("packet file not found: %s", packetPath)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEvent:
		if a.UID == "" {
			return fmt.Errorf("assertions[%d]: uid is required for event", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for event", index)
		}
	case AssertRunCounts:
		if a.Run < 0 {
			return fmt.Errorf("assertions[%d]: run must be non-negative for run_counts", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for run_counts", index)
		}
	case AssertLeaderboard:
		if a.UIDs == nil {
			return fmt.Errorf("assertions[%d]: uids list is required for leaderboard", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
