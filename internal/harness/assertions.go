package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// AssertionError is returned when an assertion fails.
// It includes the registry state to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Events   []*event.Event // Final registry events for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nRegistry events:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  %s phase=%s score=%g updated=%s\n",
				ev.UID, ev.Phase, ev.Score, ev.LastUpdated)
		}
	}
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventCount:
			err = assertEventCount(result.Registry, assertion)
		case AssertEvent:
			err = assertEvent(result.Registry, assertion)
		case AssertRunCounts:
			err = assertRunCounts(result.Runs, assertion)
		case AssertLeaderboard:
			err = assertLeaderboard(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// assertEventCount checks the final registry holds exactly the expected
// number of events.
func assertEventCount(reg *event.Registry, assertion Assertion) error {
	if len(reg.Events) != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d events", assertion.Count),
			Actual:   fmt.Sprintf("%d events", len(reg.Events)),
			Events:   reg.Events,
		}
	}
	return nil
}

// assertEvent checks a single event's fields against the expect clause
// (subset semantics: only specified fields are validated).
func assertEvent(reg *event.Registry, assertion Assertion) error {
	var target *event.Event
	for _, ev := range reg.Events {
		if ev.UID == assertion.UID {
			target = ev
			break
		}
	}
	if target == nil {
		return &AssertionError{
			Type:     AssertEvent,
			Expected: fmt.Sprintf("event with uid %s", assertion.UID),
			Actual:   "not found in registry",
			Events:   reg.Events,
		}
	}

	actual, err := toComparableMap(target)
	if err != nil {
		return fmt.Errorf("event %s: %w", assertion.UID, err)
	}
	return matchSubset(AssertEvent, assertion.UID, actual, assertion.Expect, reg.Events)
}

// assertRunCounts checks one run summary against the expect clause
// (subset semantics).
func assertRunCounts(runs []RunSummary, assertion Assertion) error {
	if assertion.Run >= len(runs) {
		return &AssertionError{
			Type:     AssertRunCounts,
			Expected: fmt.Sprintf("run index %d", assertion.Run),
			Actual:   fmt.Sprintf("only %d run(s) executed", len(runs)),
		}
	}

	actual, err := toComparableMap(runs[assertion.Run])
	if err != nil {
		return fmt.Errorf("run %d: %w", assertion.Run, err)
	}
	subject := fmt.Sprintf("run %d", assertion.Run)
	return matchSubset(AssertRunCounts, subject, actual, assertion.Expect, nil)
}

// assertLeaderboard checks the final leaderboard ranks exactly the expected
// uids, in order.
func assertLeaderboard(result *Result, assertion Assertion) error {
	if result.Leaderboard == nil {
		return &AssertionError{
			Type:     AssertLeaderboard,
			Expected: fmt.Sprintf("ranked uids %v", assertion.UIDs),
			Actual:   "no leaderboard produced",
		}
	}

	actual := make([]string, 0, len(result.Leaderboard.Risks))
	for _, risk := range result.Leaderboard.Risks {
		actual = append(actual, risk.ID)
	}
	if !reflect.DeepEqual(actual, normalizeUIDs(assertion.UIDs)) {
		return &AssertionError{
			Type:     AssertLeaderboard,
			Expected: fmt.Sprintf("ranked uids %v", assertion.UIDs),
			Actual:   fmt.Sprintf("ranked uids %v", actual),
			Events:   result.Registry.Events,
		}
	}
	return nil
}

// normalizeUIDs maps an empty expectation onto the empty slice the actual
// side produces, so "uids: []" matches an empty leaderboard.
func normalizeUIDs(uids []string) []string {
	if uids == nil {
		return []string{}
	}
	return uids
}

// matchSubset checks every expected field against the actual map. Extra
// keys in actual are ignored.
func matchSubset(assertType, subject string, actual, expect map[string]any, events []*event.Event) error {
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     assertType,
				Expected: fmt.Sprintf("%s field %q to exist", subject, key),
				Actual:   fmt.Sprintf("field %q not present", key),
				Events:   events,
			}
		}
		if !valuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     assertType,
				Expected: fmt.Sprintf("%s field %q = %v", subject, key, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v", key, actualValue),
				Events:   events,
			}
		}
	}
	return nil
}

// toComparableMap renders a value through its JSON form, so assertion
// expectations compare against the same field names and value shapes the
// interchange format uses.
func toComparableMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal for comparison: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal for comparison: %w", err)
	}
	return m, nil
}

// valuesEqual compares an expected value (YAML-decoded) with an actual
// value (JSON-decoded). Numbers are coerced to float64 on both sides, since
// YAML decodes integers as int while JSON decodes every number as float64.
func valuesEqual(expected, actual any) bool {
	return reflect.DeepEqual(coerceNumbers(expected), coerceNumbers(actual))
}

// coerceNumbers recursively converts numeric values to float64 and []any /
// map[string]any members likewise, yielding a canonical comparison shape.
func coerceNumbers(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = coerceNumbers(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = coerceNumbers(elem)
		}
		return out
	default:
		return v
	}
}
