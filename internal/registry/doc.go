// Package registry implements the mutation pipeline over tracked events:
// creation, merge, collision dedupe, score decay, and the leaderboard
// projection. Every operation mutates events in place and assumes the
// single-writer discipline of an ingestion run; nothing here is safe for
// concurrent mutation of the same registry.
package registry
