package registry

import (
	"sort"

	"github.com/roach88/riskledger/internal/event"
)

// Dedupe recanonicalizes every event's identity fields, rehashes them, and
// merges events that turn out to share a fingerprint. Events are visited in
// a deterministic identity order (first_seen, last_updated, uid; unparseable
// dates sort first), so the survivor of every collision is stable across
// runs and carries the oldest uid. The returned slice is ordered by
// last_updated descending and the index owns exactly one event per
// fingerprint.
func Dedupe(events []*event.Event) ([]*event.Event, *Index) {
	ordered := make([]*event.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if fa, fb := event.DateOrdinal(a.FirstSeen), event.DateOrdinal(b.FirstSeen); fa != fb {
			return fa < fb
		}
		if la, lb := event.DateOrdinal(a.LastUpdated), event.DateOrdinal(b.LastUpdated); la != lb {
			return la < lb
		}
		return a.UID < b.UID
	})

	index := NewIndex()
	deduped := make([]*event.Event, 0, len(ordered))

	for _, ev := range ordered {
		fields := event.CanonicalFields(ev.Fields)
		fingerprint := event.Fingerprint(fields)
		ev.Fields = fields
		ev.Fingerprint = fingerprint

		survivor, ok := index.Lookup(fingerprint)
		if !ok {
			index.Insert(fingerprint, ev)
			deduped = append(deduped, ev)
			continue
		}
		Absorb(survivor, ev, fields, fingerprint)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return event.DateOrdinal(deduped[i].LastUpdated) > event.DateOrdinal(deduped[j].LastUpdated)
	})
	return deduped, index
}

// Absorb folds a duplicate into the surviving event. The survivor keeps its
// uid and its earliest first_seen; both histories are rebuilt keyed by date
// before the duplicate's content merges in under newer-wins. Used by the
// load-time dedupe pass and by the ingestion loop when a fuzzy merge lands
// on another event's fingerprint.
func Absorb(survivor, dup *event.Event, fields event.Fields, fingerprint string) {
	if dup.FirstSeen != "" && (survivor.FirstSeen == "" || dup.FirstSeen < survivor.FirstSeen) {
		survivor.FirstSeen = dup.FirstSeen
	}

	survivor.History = rebuildHistory(survivor.History, dup.History)
	survivor.ArticleHistory = rebuildArticles(survivor.ArticleHistory, dup.ArticleHistory)

	isNewer := event.DateOrdinal(dup.LastUpdated) > event.DateOrdinal(survivor.LastUpdated)

	p := Payload{
		Cluster:    firstNonEmpty(dup.Cluster, survivor.Cluster),
		EventType:  firstNonEmpty(dup.EventType, survivor.EventType),
		Title:      firstNonEmpty(dup.Title, survivor.Title),
		Phase:      survivor.Phase,
		Score:      survivor.Score,
		Confidence: survivor.Confidence,
		Indicators: dup.Indicators,
		Tripwires:  dup.Tripwires,
		Rationale:  dup.Rationale,
		Sources:    dup.Sources,
	}
	if isNewer {
		p.Phase = firstNonEmpty(dup.Phase, survivor.Phase)
		p.Score = dup.Score
		p.Confidence = firstNonEmpty(dup.Confidence, survivor.Confidence)
	}

	asOf := survivor.LastUpdated
	if isNewer {
		asOf = dup.LastUpdated
	}
	asOf = firstNonEmpty(asOf, dup.LastUpdated, dup.FirstSeen, survivor.FirstSeen)

	Merge(survivor, p, fields, fingerprint, asOf)
}

// rebuildHistory merges two histories into one entry per date, the
// incoming side winning date collisions, ordered by date ascending.
func rebuildHistory(existing, incoming []event.HistoryEntry) []event.HistoryEntry {
	byDate := make(map[string]event.HistoryEntry, len(existing)+len(incoming))
	for _, e := range existing {
		byDate[e.Date] = e
	}
	for _, e := range incoming {
		byDate[e.Date] = e
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]event.HistoryEntry, 0, len(dates))
	for _, d := range dates {
		out = append(out, byDate[d])
	}
	return out
}

// rebuildArticles merges two article histories keyed by date, title, and
// source, the incoming side winning key collisions, ordered by date then
// title.
func rebuildArticles(existing, incoming []event.ArticleEntry) []event.ArticleEntry {
	type key struct {
		date, title, source string
	}
	at := make(map[key]int, len(existing)+len(incoming))
	out := make([]event.ArticleEntry, 0, len(existing)+len(incoming))
	for _, e := range append(append([]event.ArticleEntry{}, existing...), incoming...) {
		k := key{e.Date, e.Title, e.Source}
		if i, ok := at[k]; ok {
			out[i] = e
			continue
		}
		at[k] = len(out)
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Title < out[j].Title
	})
	return out
}
