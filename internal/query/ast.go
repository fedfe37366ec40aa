// Package query defines a small filter language over the persisted
// events table and compiles it to parameterized SQL.
//
// Filter is a sealed interface: only types in this package implement
// it. The marker method pattern prevents external implementations and
// keeps type switches in the compiler exhaustive.
package query

// Filter represents one condition over stored events.
//
// Filter types:
//   - PhaseIs: phase equals a lifecycle label
//   - ClusterIs: canonical cluster equals a value
//   - MinScore: score is at or above a floor
//   - And: all child filters must hold
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// PhaseIs matches events in a lifecycle phase.
//
// The stored phase column is canonical (lowercased, trimmed), and the
// compiler canonicalizes Phase the same way, so "Elevated" and
// "elevated" match the same rows.
type PhaseIs struct {
	Phase string
}

func (PhaseIs) filterNode() {}

// ClusterIs matches events in a canonical cluster.
//
// The compiler canonicalizes Cluster with the same rule the
// fingerprint fields use for clusters (lowercase, whitespace runs
// collapsed, slashes and underscores preserved), so the display form
// of a cluster matches its canonical column value.
type ClusterIs struct {
	Cluster string
}

func (ClusterIs) filterNode() {}

// MinScore matches events whose score is at or above Score.
type MinScore struct {
	Score float64
}

func (MinScore) filterNode() {}

// And requires every child filter to hold. An empty And is always true.
type And struct {
	Filters []Filter
}

func (And) filterNode() {}
