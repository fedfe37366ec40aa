package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/riskledger/internal/event"
	"github.com/roach88/riskledger/internal/registry"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

// resultFixture builds a single-run outcome without executing the pipeline,
// for exercising the assertion evaluator in isolation.
func resultFixture() *Result {
	reg := event.NewRegistry()
	reg.Events = append(reg.Events, &event.Event{
		UID:         "energy-aaaaaaaaaaaa",
		Fingerprint: "sha256:aaaa",
		Title:       "Pipeline outage",
		Phase:       "watch",
		Score:       55,
		Confidence:  "low",
		FirstSeen:   "2025-09-23",
		LastUpdated: "2025-09-24",
	})

	return &Result{
		Pass:     true,
		Registry: reg,
		Runs: []RunSummary{{
			RunID:   "run-001",
			Packet:  "2025-09-23.packet.json",
			AsOf:    "2025-09-24",
			Created: 1,
		}},
		Leaderboard: &registry.Leaderboard{
			AsOf: "2025-09-24",
			Note: registry.LeaderboardNote,
			Risks: []registry.Risk{
				{ID: "energy-aaaaaaaaaaaa", Name: "Pipeline outage", Score: 55, Phase: "watch", LastUpdated: "2025-09-24"},
			},
		},
	}
}

func TestRun_CreateThenMerge(t *testing.T) {
	scenario := loadTestScenario(t, "create-then-merge")

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	// Sequential run IDs when the scenario pins none.
	require.Len(t, result.Runs, 2)
	assert.Equal(t, "run-001", result.Runs[0].RunID)
	assert.Equal(t, "run-002", result.Runs[1].RunID)
	assert.Equal(t, 1, result.Runs[0].Created)
	assert.Equal(t, 1, result.Runs[1].Merged)

	// Same canonical identity: the second packet hits the fingerprint
	// index, never the fuzzy matcher.
	assert.Equal(t, 0, result.Runs[1].FuzzyMatched)

	require.Len(t, result.Registry.Events, 1)
	ev := result.Registry.Events[0]
	assert.Equal(t, "energy-470f25c441f4", ev.UID)
	assert.Equal(t, "elevated", ev.Phase)
	assert.Equal(t, float64(64), ev.Score)
	assert.Equal(t, "2025-09-23", ev.FirstSeen)
	assert.Equal(t, "2025-09-24", ev.LastUpdated)
	assert.Equal(t, "2025-09-24", result.Registry.LastRebuild)

	require.NotNil(t, result.Leaderboard)
	require.Len(t, result.Leaderboard.Risks, 1)
	assert.Equal(t, "energy-470f25c441f4", result.Leaderboard.Risks[0].ID)
}

func TestRun_DedupeAndDecay(t *testing.T) {
	scenario := loadTestScenario(t, "dedupe-and-decay")

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	require.Len(t, result.Runs, 1)
	run := result.Runs[0]
	assert.Equal(t, "golden-run-1", run.RunID)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.Deduped)
	assert.Equal(t, 1, run.Decayed)

	assert.Len(t, result.Registry.Events, 3)

	require.NotNil(t, result.Leaderboard)
	require.Len(t, result.Leaderboard.Risks, 3)
	assert.Equal(t, "metals-09a7da5e3e19", result.Leaderboard.Risks[0].ID)
	assert.Equal(t, float64(66), result.Leaderboard.Risks[0].Score)
}

func TestRun_FailedAssertionReported(t *testing.T) {
	scenario := loadTestScenario(t, "create-then-merge")
	scenario.Assertions = []Assertion{{Type: AssertEventCount, Count: 5}}

	// Assertion failures are recorded on the result, not returned as errors.
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: event_count")
	assert.Contains(t, result.Errors[0], "Expected: 5 events")
	assert.Contains(t, result.Errors[0], "Actual: 1 events")
	assert.Contains(t, result.Errors[0], "energy-470f25c441f4")
}

func TestRun_RejectsMalformedPacket(t *testing.T) {
	dir := t.TempDir()
	packetPath := filepath.Join(dir, "broken.packet.json")
	require.NoError(t, os.WriteFile(packetPath, []byte("{"), 0644))

	scenario := &Scenario{
		Name:        "broken",
		Description: "packet does not parse",
		Packets:     []string{packetPath},
		Assertions:  []Assertion{{Type: AssertEventCount}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.packet.json rejected")
}

func TestRun_SeedRegistryMissing(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing-seed",
		Description: "registry path points nowhere",
		Registry:    filepath.Join(t.TempDir(), "nope.json"),
		Packets:     []string{filepath.Join("testdata", "create-then-merge", "2025-09-23.packet.json")},
		Assertions:  []Assertion{{Type: AssertEventCount, Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read seed registry")
}

func TestRun_SeedRegistryMalformed(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte("{not json"), 0644))

	scenario := &Scenario{
		Name:        "bad-seed",
		Description: "registry file is not JSON",
		Registry:    seedPath,
		Packets:     []string{filepath.Join("testdata", "create-then-merge", "2025-09-23.packet.json")},
		Assertions:  []Assertion{{Type: AssertEventCount, Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed registry seed.json")
}

func TestResult_AddError(t *testing.T) {
	result := NewResult()
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	result.AddError("first failure")
	result.AddError("second failure")
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"first failure", "second failure"}, result.Errors)
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	result := resultFixture()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertEventCount, Count: 1},
		{Type: AssertEvent, UID: "energy-aaaaaaaaaaaa", Expect: map[string]any{
			"phase": "watch",
			// YAML decodes integers as int; comparison coerces to float64.
			"score": 55,
		}},
		{Type: AssertRunCounts, Run: 0, Expect: map[string]any{"run_id": "run-001", "created": 1}},
		{Type: AssertLeaderboard, UIDs: []string{"energy-aaaaaaaaaaaa"}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_EventCountMismatch(t *testing.T) {
	errs := EvaluateAssertions(resultFixture(), []Assertion{{Type: AssertEventCount, Count: 2}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Expected: 2 events")
	assert.Contains(t, errs[0], "Actual: 1 events")
}

func TestEvaluateAssertions_EventNotFound(t *testing.T) {
	errs := EvaluateAssertions(resultFixture(), []Assertion{
		{Type: AssertEvent, UID: "metals-ffffffffffff", Expect: map[string]any{"phase": "watch"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "event with uid metals-ffffffffffff")
	assert.Contains(t, errs[0], "not found in registry")
}

func TestEvaluateAssertions_EventFieldMismatch(t *testing.T) {
	errs := EvaluateAssertions(resultFixture(), []Assertion{
		{Type: AssertEvent, UID: "energy-aaaaaaaaaaaa", Expect: map[string]any{"score": 60}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `field "score" = 60`)
	assert.Contains(t, errs[0], `field "score" = 55`)
}

func TestEvaluateAssertions_EventFieldMissing(t *testing.T) {
	errs := EvaluateAssertions(resultFixture(), []Assertion{
		{Type: AssertEvent, UID: "energy-aaaaaaaaaaaa", Expect: map[string]any{"bogus_field": 1}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `field "bogus_field" not present`)
}

func TestEvaluateAssertions_RunIndexOutOfRange(t *testing.T) {
	errs := EvaluateAssertions(resultFixture(), []Assertion{
		{Type: AssertRunCounts, Run: 3, Expect: map[string]any{"created": 0}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "run index 3")
	assert.Contains(t, errs[0], "only 1 run(s) executed")
}

func TestEvaluateAssertions_LeaderboardOrderMismatch(t *testing.T) {
	errs := EvaluateAssertions(resultFixture(), []Assertion{
		{Type: AssertLeaderboard, UIDs: []string{"metals-ffffffffffff"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "ranked uids [metals-ffffffffffff]")
	assert.Contains(t, errs[0], "ranked uids [energy-aaaaaaaaaaaa]")
}

func TestEvaluateAssertions_LeaderboardEmptyMatchesEmpty(t *testing.T) {
	result := resultFixture()
	result.Leaderboard.Risks = []registry.Risk{}

	errs := EvaluateAssertions(result, []Assertion{{Type: AssertLeaderboard, UIDs: []string{}}})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_NoLeaderboard(t *testing.T) {
	result := resultFixture()
	result.Leaderboard = nil

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertLeaderboard, UIDs: []string{"energy-aaaaaaaaaaaa"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no leaderboard produced")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(resultFixture(), []Assertion{{Type: "trace"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "trace"`)
}

func TestAssertionError_IncludesRegistryDump(t *testing.T) {
	err := &AssertionError{
		Type:     AssertEventCount,
		Expected: "2 events",
		Actual:   "1 events",
		Events: []*event.Event{{
			UID:         "energy-aaaaaaaaaaaa",
			Phase:       "watch",
			Score:       55,
			LastUpdated: "2025-09-24",
		}},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: event_count")
	assert.Contains(t, msg, "  Expected: 2 events")
	assert.Contains(t, msg, "  Actual: 1 events")
	assert.Contains(t, msg, "Registry events:")
	assert.Contains(t, msg, "energy-aaaaaaaaaaaa phase=watch score=55 updated=2025-09-24")
}

func TestValuesEqual_NumericCoercion(t *testing.T) {
	assert.True(t, valuesEqual(55, float64(55)))
	assert.True(t, valuesEqual([]any{1, 2}, []any{float64(1), float64(2)}))
	assert.True(t, valuesEqual(map[string]any{"score": 55}, map[string]any{"score": float64(55)}))
	assert.False(t, valuesEqual(55, float64(56)))
	assert.False(t, valuesEqual("55", float64(55)))
}
