// Package store provides SQLite-backed persistence for the event
// registry and the ingest audit trail.
//
// The registry is persisted as a snapshot: SaveRegistry replaces the
// whole events table in one transaction, so a reader never observes a
// half-written registry. Each event row carries canonical columns for
// querying (cluster, phase, score and friends) and a payload JSON
// column the full event is rebuilt from; LoadRegistry restores events
// in their saved order.
//
// Run audit rows are append-only and idempotent on run_id, so a retried
// ingest command cannot double-count.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
