package store

import (
	"context"
	"fmt"
	"time"
)

// Run is one ingest audit row.
type Run struct {
	RunID        string `json:"run_id"`
	Packet       string `json:"packet"`
	AsOf         string `json:"as_of"`
	Created      int    `json:"created"`
	Merged       int    `json:"merged"`
	FuzzyMatched int    `json:"fuzzy_matched"`
	Decayed      int    `json:"decayed"`
	Deduped      int    `json:"deduped"`
	RecordedAt   string `json:"recorded_at"`
}

// RecordRun writes the audit row for a completed ingest.
// Uses ON CONFLICT(run_id) DO NOTHING for idempotency - a retried
// command cannot double-count a run.
//
// RecordedAt defaults to the current UTC time when empty.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.RecordedAt == "" {
		run.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs
		(run_id, packet, as_of, created, merged, fuzzy_matched, decayed, deduped, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		run.RunID,
		run.Packet,
		run.AsOf,
		run.Created,
		run.Merged,
		run.FuzzyMatched,
		run.Decayed,
		run.Deduped,
		run.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return nil
}

// ListRuns returns ingest audit rows, newest first. Ties on recorded_at
// break on run_id for deterministic output.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, packet, as_of, created, merged, fuzzy_matched, decayed, deduped, recorded_at
		FROM ingest_runs
		ORDER BY recorded_at DESC, run_id COLLATE BINARY DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.RunID, &run.Packet, &run.AsOf, &run.Created, &run.Merged,
			&run.FuzzyMatched, &run.Decayed, &run.Deduped, &run.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []Run{}
	}

	return runs, nil
}
