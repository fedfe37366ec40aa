package event

// Update is one raw batch item as received. Updates are never persisted;
// each one is consumed to create or mutate exactly one Event.
type Update struct {
	UID        string         `json:"uid,omitempty"` // upstream correlation key
	Fields     Fields         `json:"fingerprint_fields"`
	Title      string         `json:"title"`
	Phase      string         `json:"phase"`
	Score      Score          `json:"score"`
	Confidence string         `json:"confidence"`
	Indicators map[string]any `json:"indicators"`
	Tripwires  []string       `json:"tripwires"`
	Rationale  []string       `json:"rationale"`
	Sources    []string       `json:"sources"`
	Brief      *Brief         `json:"brief,omitempty"`
}

// Brief carries the slug hint for a per-event page. Page rendering itself
// is an external collaborator; the engine only resolves the slug.
type Brief struct {
	Slug  string `json:"slug,omitempty"`
	Title string `json:"title,omitempty"`
}

// SlugHint returns the slug an update resolves under: the brief's explicit
// slug, else the brief's title, else the update's own title, slugified.
// With no hint text at all this is Slugify's "post" fallback.
func (u *Update) SlugHint() string {
	var hint string
	if u.Brief != nil {
		if u.Brief.Slug != "" {
			hint = u.Brief.Slug
		} else if u.Brief.Title != "" {
			hint = u.Brief.Title
		}
	}
	if hint == "" {
		hint = u.Title
	}
	return Slugify(hint)
}
