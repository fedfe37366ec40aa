package query

import (
	"fmt"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// ValidationResult carries the outcome of filter validation.
//
// Warnings never block execution; a filter outside the expected value
// ranges still compiles and runs, it just cannot match anything. The
// warnings exist so the CLI can tell the user why a query came back
// empty.
type ValidationResult struct {
	// OK is true when the filter raised no warnings.
	OK bool

	// Warnings lists suspect values found in the filter.
	Warnings []string
}

// Validate checks a filter for values that can never match stored
// events. A nil filter is valid (no conditions).
//
// Validate is a pure function with no side effects.
func Validate(f Filter) ValidationResult {
	v := &validator{warnings: []string{}}
	if f != nil {
		v.validateFilter(f)
	}
	return ValidationResult{
		OK:       len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateFilter(f Filter) {
	switch filter := f.(type) {
	case PhaseIs:
		v.validatePhase(filter)
	case *PhaseIs:
		v.validatePhase(*filter)
	case ClusterIs:
		v.validateCluster(filter)
	case *ClusterIs:
		v.validateCluster(*filter)
	case MinScore:
		v.validateMinScore(filter)
	case *MinScore:
		v.validateMinScore(*filter)
	case And:
		v.validateAnd(filter)
	case *And:
		v.validateAnd(*filter)
	default:
		v.addWarning("unknown filter type: %T", f)
	}
}

// validatePhase only rejects an empty filter. Phases are free text in the
// registry, so any non-empty label can legitimately match stored rows.
func (v *validator) validatePhase(p PhaseIs) {
	if event.NormalizeLabel(p.Phase) == "" {
		v.addWarning("phase filter is empty")
	}
}

func (v *validator) validateCluster(c ClusterIs) {
	if strings.TrimSpace(c.Cluster) == "" {
		v.addWarning("cluster filter is empty")
	}
}

func (v *validator) validateMinScore(m MinScore) {
	if m.Score < 0 || m.Score > 100 {
		v.addWarning("minimum score %v is outside the 0-100 range", m.Score)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Filters {
		if sub == nil {
			v.addWarning("conjunction contains a nil filter")
			continue
		}
		v.validateFilter(sub)
	}
}
