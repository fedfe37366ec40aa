package registry

import "github.com/roach88/riskledger/internal/event"

// Index maps fingerprints to their owning events for exact-match lookup
// during ingestion. It is a lookup structure only: fuzzy-match candidate
// scans iterate the registry's event slice, never the map, so candidate
// order stays deterministic.
type Index struct {
	byFingerprint map[string]*event.Event
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byFingerprint: make(map[string]*event.Event)}
}

// Lookup returns the event owning a fingerprint.
func (x *Index) Lookup(fingerprint string) (*event.Event, bool) {
	ev, ok := x.byFingerprint[fingerprint]
	return ev, ok
}

// Insert registers an event under a fingerprint, replacing any previous
// owner of that fingerprint.
func (x *Index) Insert(fingerprint string, ev *event.Event) {
	x.byFingerprint[fingerprint] = ev
}

// Move re-registers an event whose identity widened during a fuzzy merge.
// The old entry is removed only while this event still owns it; the event
// is always registered under the new fingerprint. When a different event
// already owned the new fingerprint, that event is evicted and returned:
// the caller must collapse the pair, because two registry events can
// never share a fingerprint.
func (x *Index) Move(oldFingerprint, newFingerprint string, ev *event.Event) *event.Event {
	if oldFingerprint != newFingerprint {
		if owner, ok := x.byFingerprint[oldFingerprint]; ok && owner == ev {
			delete(x.byFingerprint, oldFingerprint)
		}
	}
	displaced := x.byFingerprint[newFingerprint]
	x.byFingerprint[newFingerprint] = ev
	if displaced == ev {
		return nil
	}
	return displaced
}

// Len reports the number of distinct fingerprints tracked.
func (x *Index) Len() int {
	return len(x.byFingerprint)
}
