package registry

import (
	"sort"

	"github.com/roach88/riskledger/internal/event"
)

const (
	// LeaderboardSize caps the ranked projection.
	LeaderboardSize = 10

	// LeaderboardNote is the fixed legend shipped with every leaderboard.
	LeaderboardNote = "Scores 0–100; 50 baseline"

	// riskSourceCap limits per-risk source attribution.
	riskSourceCap = 4
)

// Leaderboard is the ranked projection of active events for one as_of date.
type Leaderboard struct {
	AsOf  string `json:"as_of"`
	Note  string `json:"note"`
	Risks []Risk `json:"risks"`
}

// Risk is one leaderboard row.
type Risk struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	Phase       string   `json:"phase"`
	LastUpdated string   `json:"last_updated"`
	Cluster     string   `json:"cluster,omitempty"`
	Sources     []string `json:"sources"`
}

// BuildLeaderboard ranks active-phase events by clamped score, then
// confidence, then recency, and projects the top entries. Events sharing a
// fingerprint are reported once, as are events sharing a normalized
// cluster:title key; untitled events skip the title check. The stable sort
// keeps tied events in registry order.
func BuildLeaderboard(events []*event.Event, asOf string) *Leaderboard {
	ranked := make([]*event.Event, 0, len(events))
	for _, ev := range events {
		if event.PhaseActive(ev.Phase) {
			ranked = append(ranked, ev)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if sa, sb := event.ClampScore(a.Score), event.ClampScore(b.Score); sa != sb {
			return sa > sb
		}
		if ca, cb := confidenceRank(a.Confidence), confidenceRank(b.Confidence); ca != cb {
			return ca > cb
		}
		return event.DateOrdinal(a.LastUpdated) > event.DateOrdinal(b.LastUpdated)
	})

	seenIdentity := make(map[string]bool, len(ranked))
	seenTitle := make(map[string]bool, len(ranked))
	risks := make([]Risk, 0, LeaderboardSize)

	for _, ev := range ranked {
		if len(risks) == LeaderboardSize {
			break
		}

		if identity := firstNonEmpty(ev.Fingerprint, ev.UID); identity != "" {
			if seenIdentity[identity] {
				continue
			}
			seenIdentity[identity] = true
		}

		if title := event.NormalizeToken(ev.Title, event.CaseLower, true); title != "" {
			key := event.NormalizeToken(ev.Cluster, event.CaseLower, false) + ":" + title
			if seenTitle[key] {
				continue
			}
			seenTitle[key] = true
		}

		sources := ev.Sources
		if len(sources) > riskSourceCap {
			sources = sources[:riskSourceCap]
		}

		risks = append(risks, Risk{
			ID:          ev.UID,
			Name:        ev.Title,
			Score:       event.ClampScore(ev.Score),
			Phase:       ev.Phase,
			LastUpdated: ev.LastUpdated,
			Cluster:     ev.Cluster,
			Sources:     append([]string{}, sources...),
		})
	}

	return &Leaderboard{AsOf: asOf, Note: LeaderboardNote, Risks: risks}
}

func confidenceRank(confidence string) int {
	return event.ConfidenceRank[event.NormalizeLabel(confidence)]
}
