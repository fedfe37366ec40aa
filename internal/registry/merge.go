package registry

import (
	"sort"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// Payload carries one update's mutable content, separated from the identity
// fields that travel as event.Fields. The ingestion path builds it straight
// from a raw update; the dedupe pass builds it from the losing duplicate.
type Payload struct {
	Cluster    string
	EventType  string
	Title      string
	Phase      string
	Score      float64
	Confidence string
	Indicators map[string]any
	Tripwires  []string
	Rationale  []string
	Sources    []string
}

// PayloadFromUpdate extracts the merge payload from a raw batch update.
// Cluster and event type come from the raw fingerprint fields, so display
// labels keep the upstream casing even though identity is canonical.
func PayloadFromUpdate(u *event.Update) Payload {
	return Payload{
		Cluster:    u.Fields.Cluster,
		EventType:  u.Fields.EventType,
		Title:      u.Title,
		Phase:      u.Phase,
		Score:      float64(u.Score),
		Confidence: u.Confidence,
		Indicators: u.Indicators,
		Tripwires:  u.Tripwires,
		Rationale:  u.Rationale,
		Sources:    u.Sources,
	}
}

// MergeFields widens one canonical field set with another: scalar fields
// prefer the incoming side when non-empty, set fields take the sorted
// union. Both inputs must already be canonical; the result is canonical.
func MergeFields(base, incoming event.Fields) event.Fields {
	return event.Fields{
		Cluster:         firstNonEmpty(incoming.Cluster, base.Cluster),
		EventType:       firstNonEmpty(incoming.EventType, base.EventType),
		PrimaryEntities: unionSorted(base.PrimaryEntities, incoming.PrimaryEntities),
		Geography:       unionSorted(base.Geography, incoming.Geography),
		Instruments:     unionSorted(base.Instruments, incoming.Instruments),
		Mechanism:       firstNonEmpty(incoming.Mechanism, base.Mechanism),
		CanonicalSource: firstNonEmpty(incoming.CanonicalSource, base.CanonicalSource),
	}
}

// Merge folds an update into an existing event. The caller has already
// resolved identity: fields and fingerprint are the event's (possibly
// widened) canonical identity after this batch.
//
// Mutable scalars follow newer-wins. Title, phase, score, and confidence
// apply only when asOf is not earlier than the event's last_updated, and a
// blank incoming string never erases a stored value. List fields union
// regardless of batch age, so late-arriving evidence still accumulates.
// History and article history gain or replace their entry at the winning
// date, which becomes the event's last_updated.
func Merge(ev *event.Event, p Payload, fields event.Fields, fingerprint, asOf string) {
	ev.Fields = fields
	ev.Fingerprint = fingerprint

	ev.Cluster = firstNonEmpty(p.Cluster, fields.Cluster)
	ev.EventType = firstNonEmpty(p.EventType, fields.EventType)

	newer := ev.LastUpdated == "" || event.DateOrdinal(asOf) >= event.DateOrdinal(ev.LastUpdated)
	winning := asOf
	if !newer {
		winning = ev.LastUpdated
	}

	if newer {
		// Deliberately narrower than unconditional newer-wins: a blank
		// incoming title/phase/confidence keeps the stored value. Only the
		// score follows the newer batch regardless, even to zero.
		if strings.TrimSpace(p.Title) != "" {
			ev.Title = p.Title
		}
		if strings.TrimSpace(p.Phase) != "" {
			ev.Phase = p.Phase
		}
		ev.Score = event.ClampScore(p.Score)
		if strings.TrimSpace(p.Confidence) != "" {
			ev.Confidence = p.Confidence
		}
	}

	if fields.CanonicalSource != "" {
		ev.CanonicalSource = fields.CanonicalSource
	}

	if len(p.Indicators) > 0 {
		if ev.Indicators == nil {
			ev.Indicators = make(map[string]any, len(p.Indicators))
		}
		for k, v := range p.Indicators {
			ev.Indicators[k] = v
		}
	}

	ev.Tripwires = event.DedupeStrings(concat(ev.Tripwires, p.Tripwires))
	ev.Rationale = event.DedupeStrings(concat(ev.Rationale, p.Rationale))

	contributed := canonicalizeSources(p.Sources)
	if fields.CanonicalSource != "" {
		contributed = append(contributed, fields.CanonicalSource)
	}
	ev.Sources = event.DedupeStrings(concat(canonicalizeSources(ev.Sources), contributed))

	ev.LastUpdated = winning
	ev.UpsertHistory(event.HistoryEntry{Date: winning, Score: ev.Score})
	ev.UpsertArticle(event.ArticleEntry{
		Date:    winning,
		Title:   ev.Title,
		Score:   ev.Score,
		Source:  fields.CanonicalSource,
		Sources: event.DedupeStrings(contributed),
	})
}

// canonicalizeSources canonicalizes every non-blank source URL, preserving
// order and duplicates; deduplication happens after both sides are merged.
func canonicalizeSources(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, event.CanonicalizeURL(s))
	}
	return out
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range concat(a, b) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
