package registry

import "github.com/roach88/riskledger/internal/event"

// DecayConfig controls score aging for active events that stop receiving
// updates.
type DecayConfig struct {
	GraceDays    int     // days since last update before decay starts
	PointsPerDay float64 // points subtracted per day past the grace window
}

// DefaultDecayConfig returns the production curve: one week of grace, then
// three points per day.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{GraceDays: 7, PointsPerDay: 3}
}

// Decay ages every active-phase event whose last update is older than the
// grace window, clamping the result into the score range and recording it
// in history under asOf. last_updated stays untouched: only fresh batch
// content advances it, so a decayed event keeps aging until new evidence
// arrives. Returns the number of events whose score changed.
//
// Events with a missing or unparseable last_updated are skipped; their age
// cannot be established. An unparseable asOf decays nothing.
func Decay(events []*event.Event, asOf string, cfg DecayConfig) int {
	asOfOrd := event.DateOrdinal(asOf)
	if asOfOrd < 0 {
		return 0
	}

	decayed := 0
	for _, ev := range events {
		if !event.PhaseActive(ev.Phase) {
			continue
		}
		lastOrd := event.DateOrdinal(ev.LastUpdated)
		if lastOrd < 0 {
			continue
		}
		delta := asOfOrd - lastOrd
		if delta <= cfg.GraceDays {
			continue
		}

		next := event.ClampScore(ev.Score - cfg.PointsPerDay*float64(delta-cfg.GraceDays))
		if next == ev.Score {
			continue
		}
		ev.Score = next
		ev.UpsertHistory(event.HistoryEntry{Date: asOf, Score: next})
		decayed++
	}
	return decayed
}
