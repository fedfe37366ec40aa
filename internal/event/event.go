package event

// RegistryVersion is the schema version written into new registries.
const RegistryVersion = 1

// Registry is the sole persisted aggregate: every tracked Event, owned
// exclusively, plus rebuild metadata.
type Registry struct {
	Version     int      `json:"version"`
	LastRebuild string   `json:"last_rebuild,omitempty"` // as_of of the last ingestion run
	Events      []*Event `json:"events"`
}

// NewRegistry returns an empty registry at the current schema version.
func NewRegistry() *Registry {
	return &Registry{
		Version: RegistryVersion,
		Events:  []*Event{},
	}
}

// Event is one tracked risk event. Exactly one Event exists per distinct
// fingerprint at any time; the index rebuild at load enforces this.
type Event struct {
	UID             string         `json:"uid"` // assigned at creation, never recomputed
	Fingerprint     string         `json:"fingerprint"`
	Fields          Fields         `json:"fingerprint_fields"`
	Cluster         string         `json:"cluster,omitempty"`
	EventType       string         `json:"event_type,omitempty"`
	Title           string         `json:"title"`
	Phase           string         `json:"phase"`
	Score           float64        `json:"score"`
	Confidence      string         `json:"confidence"`
	CanonicalSource string         `json:"canonical_source,omitempty"`
	Indicators      map[string]any `json:"indicators"`
	Tripwires       []string       `json:"tripwires"`
	Rationale       []string       `json:"rationale"`
	Sources         []string       `json:"sources"`
	FirstSeen       string         `json:"first_seen"`
	LastUpdated     string         `json:"last_updated"`
	History         []HistoryEntry `json:"history"`
	ArticleHistory  []ArticleEntry `json:"article_history"`
}

// HistoryEntry records the score observed on one date. At most one entry
// exists per distinct date; re-ingestions for the same date overwrite it.
type HistoryEntry struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

// ArticleEntry records the per-batch presentation snapshot for one date,
// used for audit and display.
type ArticleEntry struct {
	Date    string   `json:"date"`
	Title   string   `json:"title"`
	Score   float64  `json:"score"`
	Source  string   `json:"source,omitempty"` // canonical_source of the contributing batch
	Sources []string `json:"sources"`          // sources contributed by that batch only
}

// ActivePhases is the set of phases subject to decay and leaderboard
// eligibility. Comparison is case-insensitive on the trimmed phase.
var ActivePhases = map[string]bool{
	"watch":    true,
	"elevated": true,
	"critical": true,
}

// PhaseActive reports whether a raw phase value is in the active set.
func PhaseActive(phase string) bool {
	return ActivePhases[NormalizeLabel(phase)]
}

// ConfidenceRank orders confidence labels for ranking. Unrecognized
// labels rank 0.
var ConfidenceRank = map[string]int{
	"high":   3,
	"medium": 2,
	"low":    1,
}
