// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceRunIDs generates run IDs in a fixed sequence: prefix-001,
// prefix-002, and so on.
//
// This enables deterministic pipeline summaries and golden snapshot
// comparison. The same scenario with a fresh SequenceRunIDs produces
// byte-identical snapshots.
//
// Unlike ingest.FixedGenerator, which returns a predeclared list and
// panics when it runs out, this generator never exhausts. Use it when a
// scenario does not pin explicit run IDs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequenceRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceRunIDs creates a sequence generator with the given prefix.
//
// If prefix is empty, "test-run" is used.
func NewSequenceRunIDs(prefix string) *SequenceRunIDs {
	if prefix == "" {
		prefix = "test-run"
	}
	return &SequenceRunIDs{prefix: prefix}
}

// Generate returns the next run ID in the sequence.
//
// Implements ingest.RunIDGenerator.
func (g *SequenceRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}

// Reset restarts the sequence. After Reset(), the next call to Generate()
// returns prefix-001 again.
func (g *SequenceRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
