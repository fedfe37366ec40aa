package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/riskledger/internal/event"
	"github.com/roach88/riskledger/internal/query"
)

// SaveRegistry replaces the persisted registry with reg in a single
// transaction. Events are written in registry order; searchable columns
// hold canonical projections (lowercased phase and confidence, the
// canonical cluster and event type) so filters match regardless of the
// display casing a packet used.
func (s *Store) SaveRegistry(ctx context.Context, reg *event.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save registry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("save registry: clear events: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO registry_meta (id, version, last_rebuild)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			last_rebuild = excluded.last_rebuild
	`, reg.Version, reg.LastRebuild); err != nil {
		return fmt.Errorf("save registry: write meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(uid, fingerprint, cluster, event_type, title, phase, confidence, score, first_seen, last_updated, position, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save registry: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ev := range reg.Events {
		payload, err := marshalEvent(ev)
		if err != nil {
			return fmt.Errorf("save registry: event %s: %w", ev.UID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			ev.UID,
			ev.Fingerprint,
			ev.Fields.Cluster,
			ev.Fields.EventType,
			ev.Title,
			event.NormalizeLabel(ev.Phase),
			event.NormalizeLabel(ev.Confidence),
			ev.Score,
			ev.FirstSeen,
			ev.LastUpdated,
			i,
			payload,
		); err != nil {
			return fmt.Errorf("save registry: insert event %s: %w", ev.UID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save registry: commit: %w", err)
	}

	return nil
}

// LoadRegistry restores the persisted registry, events in saved order.
// An empty database yields a fresh registry.
func (s *Store) LoadRegistry(ctx context.Context) (*event.Registry, error) {
	reg := event.NewRegistry()

	err := s.db.QueryRowContext(ctx, `
		SELECT version, last_rebuild FROM registry_meta WHERE id = 1
	`).Scan(&reg.Version, &reg.LastRebuild)
	if errors.Is(err, sql.ErrNoRows) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load registry: read meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM events ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load registry: query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("load registry: scan event: %w", err)
		}
		ev, err := unmarshalEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		reg.Events = append(reg.Events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load registry: iterate events: %w", err)
	}

	return reg, nil
}

// EventSummary is the column projection the events listing returns.
type EventSummary struct {
	UID         string  `json:"uid"`
	Fingerprint string  `json:"fingerprint"`
	Cluster     string  `json:"cluster"`
	EventType   string  `json:"event_type"`
	Title       string  `json:"title"`
	Phase       string  `json:"phase"`
	Confidence  string  `json:"confidence"`
	Score       float64 `json:"score"`
	FirstSeen   string  `json:"first_seen"`
	LastUpdated string  `json:"last_updated"`
}

// QueryEvents runs a compiled filter against the events table. A nil
// filter lists every event. Returns an empty slice, not nil, when
// nothing matches.
func (s *Store) QueryEvents(ctx context.Context, f query.Filter) ([]EventSummary, error) {
	sqlText, params, err := query.Compile(f)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var summaries []EventSummary
	for rows.Next() {
		var e EventSummary
		if err := rows.Scan(
			&e.UID, &e.Fingerprint, &e.Cluster, &e.EventType, &e.Title,
			&e.Phase, &e.Confidence, &e.Score, &e.FirstSeen, &e.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		summaries = append(summaries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	// Return empty slice instead of nil
	if summaries == nil {
		summaries = []EventSummary{}
	}

	return summaries, nil
}
