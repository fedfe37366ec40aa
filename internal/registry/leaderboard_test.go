package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/riskledger/internal/event"
)

func rankedEvent(uid, title string, score float64, confidence, lastUpdated string) *event.Event {
	return &event.Event{
		UID:         uid,
		Fingerprint: event.FingerprintPrefix + uid,
		Cluster:     "energy",
		Title:       title,
		Phase:       "watch",
		Score:       score,
		Confidence:  confidence,
		LastUpdated: lastUpdated,
		Sources:     []string{"https://example.com/" + uid},
	}
}

func TestLeaderboardRanksScoreConfidenceRecency(t *testing.T) {
	lowConf := rankedEvent("energy-a", "Alpha Outage", 80, "low", "2025-09-24")
	highConf := rankedEvent("energy-b", "Beta Outage", 80, "high", "2025-09-01")
	top := rankedEvent("energy-c", "Gamma Outage", 90, "low", "2025-09-01")
	recent := rankedEvent("energy-d", "Delta Outage", 80, "low", "2025-09-25")

	lb := BuildLeaderboard([]*event.Event{lowConf, highConf, top, recent}, "2025-09-25")

	require.Len(t, lb.Risks, 4)
	assert.Equal(t, "energy-c", lb.Risks[0].ID, "highest score first")
	assert.Equal(t, "energy-b", lb.Risks[1].ID, "confidence breaks score ties")
	assert.Equal(t, "energy-d", lb.Risks[2].ID, "recency breaks confidence ties")
	assert.Equal(t, "energy-a", lb.Risks[3].ID)
}

func TestLeaderboardCapsAtTen(t *testing.T) {
	events := make([]*event.Event, 0, 12)
	for i := 0; i < 12; i++ {
		events = append(events, rankedEvent(
			fmt.Sprintf("energy-%02d", i),
			fmt.Sprintf("Outage %02d", i),
			float64(40+i),
			"medium",
			"2025-09-24",
		))
	}

	lb := BuildLeaderboard(events, "2025-09-24")

	require.Len(t, lb.Risks, LeaderboardSize)
	assert.Equal(t, "energy-11", lb.Risks[0].ID, "the two weakest scores fall off")
	assert.Equal(t, "energy-02", lb.Risks[9].ID)
}

func TestLeaderboardSkipsInactivePhases(t *testing.T) {
	active := rankedEvent("energy-a", "Alpha", 60, "medium", "2025-09-24")
	resolved := rankedEvent("energy-b", "Beta", 95, "high", "2025-09-24")
	resolved.Phase = "resolved"
	blank := rankedEvent("energy-c", "Gamma", 95, "high", "2025-09-24")
	blank.Phase = ""

	lb := BuildLeaderboard([]*event.Event{active, resolved, blank}, "2025-09-24")

	require.Len(t, lb.Risks, 1)
	assert.Equal(t, "energy-a", lb.Risks[0].ID)
}

func TestLeaderboardCollapsesSharedFingerprint(t *testing.T) {
	a := rankedEvent("energy-a", "Alpha", 80, "high", "2025-09-24")
	b := rankedEvent("energy-b", "Beta", 70, "high", "2025-09-24")
	b.Fingerprint = a.Fingerprint

	lb := BuildLeaderboard([]*event.Event{a, b}, "2025-09-24")

	require.Len(t, lb.Risks, 1, "one row per fingerprint")
	assert.Equal(t, "energy-a", lb.Risks[0].ID, "the higher-ranked holder keeps the row")
}

func TestLeaderboardCollapsesClusterTitleKey(t *testing.T) {
	a := rankedEvent("energy-a", "Port Strike Rotterdam", 80, "high", "2025-09-24")
	a.Cluster = "Shipping"
	b := rankedEvent("energy-b", "port_strike rotterdam", 70, "high", "2025-09-24")
	b.Cluster = "shipping"

	lb := BuildLeaderboard([]*event.Event{a, b}, "2025-09-24")

	require.Len(t, lb.Risks, 1,
		"titles equal after normalization collapse within a cluster")
	assert.Equal(t, "energy-a", lb.Risks[0].ID)
}

func TestLeaderboardKeepsUntitledEventsApart(t *testing.T) {
	a := rankedEvent("energy-a", "", 80, "high", "2025-09-24")
	b := rankedEvent("energy-b", "", 70, "high", "2025-09-24")

	lb := BuildLeaderboard([]*event.Event{a, b}, "2025-09-24")

	assert.Len(t, lb.Risks, 2, "untitled events never share a title key")
}

func TestLeaderboardFallsBackToUIDIdentity(t *testing.T) {
	a := rankedEvent("energy-a", "Alpha", 80, "high", "2025-09-24")
	a.Fingerprint = ""
	dup := rankedEvent("energy-a", "Alpha Again", 70, "high", "2025-09-24")
	dup.Fingerprint = ""

	lb := BuildLeaderboard([]*event.Event{a, dup}, "2025-09-24")

	require.Len(t, lb.Risks, 1, "without fingerprints the uid deduplicates")
}

func TestLeaderboardTrimsSources(t *testing.T) {
	ev := rankedEvent("energy-a", "Alpha", 80, "high", "2025-09-24")
	ev.Sources = []string{"s1", "s2", "s3", "s4", "s5", "s6"}

	lb := BuildLeaderboard([]*event.Event{ev}, "2025-09-24")

	require.Len(t, lb.Risks, 1)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, lb.Risks[0].Sources)
}

func TestLeaderboardClampsProjectedScores(t *testing.T) {
	ev := rankedEvent("energy-a", "Alpha", 130, "high", "2025-09-24")

	lb := BuildLeaderboard([]*event.Event{ev}, "2025-09-24")

	require.Len(t, lb.Risks, 1)
	assert.Equal(t, 100.0, lb.Risks[0].Score)
}

func TestLeaderboardShape(t *testing.T) {
	lb := BuildLeaderboard(nil, "2025-09-24")

	assert.Equal(t, "2025-09-24", lb.AsOf)
	assert.Equal(t, LeaderboardNote, lb.Note)
	require.NotNil(t, lb.Risks, "risks must serialize as [], not null")
	assert.Empty(t, lb.Risks)
}

func TestLeaderboardProjection(t *testing.T) {
	ev := rankedEvent("energy-a", "Alpha Outage", 77, "medium", "2025-09-24")
	ev.Cluster = "Energy"

	lb := BuildLeaderboard([]*event.Event{ev}, "2025-09-24")

	require.Len(t, lb.Risks, 1)
	assert.Equal(t, Risk{
		ID:          "energy-a",
		Name:        "Alpha Outage",
		Score:       77,
		Phase:       "watch",
		LastUpdated: "2025-09-24",
		Cluster:     "Energy",
		Sources:     []string{"https://example.com/energy-a"},
	}, lb.Risks[0])
}
