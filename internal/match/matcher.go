package match

import (
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// DefaultThreshold is the minimum similarity score at which an incoming
// update is considered the same event as an existing registry entry.
const DefaultThreshold = 0.70

// Config holds the similarity weights and the match threshold.
//
// The weights sum to 1.0 when titles are present on both sides. The title
// term is omitted when either title is blank, so the maximum attainable
// score without titles is 0.90.
type Config struct {
	Cluster     float64 // exact match on canonical cluster
	EventType   float64 // exact match on canonical event type
	Entities    float64 // Jaccard overlap of primary entities
	Instruments float64 // Jaccard overlap of instrument codes
	Geography   float64 // Jaccard overlap of geography codes
	Mechanism   float64 // sequence ratio of mechanism strings
	Title       float64 // sequence ratio of titles, both sides non-empty
	Threshold   float64
}

// DefaultConfig returns the production weights. Tests probing boundary
// behavior construct their own Config instead of mutating this one.
func DefaultConfig() Config {
	return Config{
		Cluster:     0.15,
		EventType:   0.15,
		Entities:    0.20,
		Instruments: 0.10,
		Geography:   0.15,
		Mechanism:   0.15,
		Title:       0.10,
		Threshold:   DefaultThreshold,
	}
}

// Matcher scores incoming updates against stored events.
type Matcher struct {
	cfg Config
}

// New creates a Matcher with the given configuration.
func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Score computes the weighted similarity between an existing event and an
// incoming update described by its canonical fields and raw title.
//
// The exact-match terms fire only when the existing side carries a value:
// two blank clusters are not evidence of sameness. Titles are trimmed and
// lowercased before comparison.
func (m *Matcher) Score(existing *event.Event, fields event.Fields, title string) float64 {
	score := 0.0

	if existing.Fields.Cluster != "" && existing.Fields.Cluster == fields.Cluster {
		score += m.cfg.Cluster
	}
	if existing.Fields.EventType != "" && existing.Fields.EventType == fields.EventType {
		score += m.cfg.EventType
	}

	score += m.cfg.Entities * jaccard(existing.Fields.PrimaryEntities, fields.PrimaryEntities)
	score += m.cfg.Instruments * jaccard(existing.Fields.Instruments, fields.Instruments)
	score += m.cfg.Geography * jaccard(existing.Fields.Geography, fields.Geography)
	score += m.cfg.Mechanism * sequenceSimilarity(existing.Fields.Mechanism, fields.Mechanism)

	existingTitle := strings.ToLower(strings.TrimSpace(existing.Title))
	incomingTitle := strings.ToLower(strings.TrimSpace(title))
	if existingTitle != "" && incomingTitle != "" {
		score += m.cfg.Title * sequenceSimilarity(existingTitle, incomingTitle)
	}

	return score
}

// BestMatch scans events in order and returns the highest-scoring event at
// or above the threshold, together with its score. Ties keep the event
// encountered first. Returns nil and 0 when nothing clears the threshold.
func (m *Matcher) BestMatch(events []*event.Event, fields event.Fields, title string) (*event.Event, float64) {
	var best *event.Event
	bestScore := 0.0
	for _, ev := range events {
		s := m.Score(ev, fields, title)
		if s >= m.cfg.Threshold && (best == nil || s > bestScore) {
			best = ev
			bestScore = s
		}
	}
	return best, bestScore
}

// jaccard computes |a n b| / |a u b| over two string sets, ignoring blank
// entries. Defined as 0 when either side is empty: absent evidence never
// counts toward a match.
func jaccard(a, b []string) float64 {
	left := toSet(a)
	right := toSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0.0
	}
	intersection := 0
	for item := range left {
		if _, ok := right[item]; ok {
			intersection++
		}
	}
	union := len(left) + len(right) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

// sequenceSimilarity is Ratio gated on content: both sides are trimmed and
// either being empty yields 0 rather than Ratio's both-empty 1.0.
func sequenceSimilarity(a, b string) float64 {
	left := strings.TrimSpace(a)
	right := strings.TrimSpace(b)
	if left == "" || right == "" {
		return 0.0
	}
	return Ratio(left, right)
}
