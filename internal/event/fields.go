package event

import "sort"

// Fields are the canonical identity attributes of an event. Two updates
// describe the same underlying event exactly when their canonical Fields
// (minus CanonicalSource) are equal.
type Fields struct {
	Cluster         string   `json:"cluster"`
	EventType       string   `json:"event_type"`
	PrimaryEntities []string `json:"primary_entities"`
	Geography       []string `json:"geography"`
	Instruments     []string `json:"instruments"`
	Mechanism       string   `json:"mechanism"`
	CanonicalSource string   `json:"canonical_source,omitempty"`
}

// CanonicalFields normalizes raw fingerprint fields into their canonical
// form: cluster keeps its delimiters but collapses whitespace, event_type
// and mechanism collapse delimiter runs, entity names are lowercased,
// geography and instrument codes are uppercased, and all three sets are
// deduplicated and sorted. CanonicalSource is normalized as a URL.
//
// The function is idempotent: CanonicalFields(CanonicalFields(f)) equals
// CanonicalFields(f).
func CanonicalFields(raw Fields) Fields {
	return Fields{
		Cluster:         NormalizeToken(raw.Cluster, CaseLower, false),
		EventType:       NormalizeToken(raw.EventType, CaseLower, true),
		PrimaryEntities: normalizeSet(raw.PrimaryEntities, CaseLower),
		Geography:       normalizeSet(raw.Geography, CaseUpper),
		Instruments:     normalizeSet(raw.Instruments, CaseUpper),
		Mechanism:       NormalizeToken(raw.Mechanism, CaseLower, true),
		CanonicalSource: CanonicalizeURL(raw.CanonicalSource),
	}
}

// normalizeSet normalizes every member, drops empties, deduplicates, and
// sorts. Always returns a non-nil slice so canonical fields serialize as
// [] rather than null.
func normalizeSet(values []string, c Case) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := NormalizeToken(v, c, true)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
