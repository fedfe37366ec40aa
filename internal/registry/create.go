package registry

import (
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// Create builds a new event from an update that matched nothing. The uid
// binds the canonical cluster to the tail of the content digest and is
// never recomputed afterward, even when later merges move the fingerprint.
func Create(fields event.Fields, fingerprint string, p Payload, asOf string) *event.Event {
	clusterKey := fields.Cluster
	if clusterKey == "" {
		clusterKey = "event"
	}
	uid := strings.ReplaceAll(clusterKey+"-"+event.DigestSuffix(fingerprint, 12), " ", "-")

	indicators := p.Indicators
	if indicators == nil {
		indicators = map[string]any{}
	}

	sources := canonicalizeSources(p.Sources)
	if fields.CanonicalSource != "" {
		sources = append(sources, fields.CanonicalSource)
	}
	sources = event.DedupeStrings(sources)

	title := strings.TrimSpace(p.Title)
	score := event.ClampScore(p.Score)

	return &event.Event{
		UID:             uid,
		Fingerprint:     fingerprint,
		Fields:          fields,
		Cluster:         firstNonEmpty(p.Cluster, fields.Cluster),
		EventType:       firstNonEmpty(p.EventType, fields.EventType),
		Title:           title,
		Phase:           strings.TrimSpace(p.Phase),
		Score:           score,
		Confidence:      strings.TrimSpace(p.Confidence),
		CanonicalSource: fields.CanonicalSource,
		Indicators:      indicators,
		Tripwires:       event.DedupeStrings(p.Tripwires),
		Rationale:       event.DedupeStrings(p.Rationale),
		Sources:         sources,
		FirstSeen:       asOf,
		LastUpdated:     asOf,
		History:         []event.HistoryEntry{{Date: asOf, Score: score}},
		ArticleHistory: []event.ArticleEntry{{
			Date:    asOf,
			Title:   title,
			Score:   score,
			Source:  fields.CanonicalSource,
			Sources: sources,
		}},
	}
}
