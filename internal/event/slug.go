package event

import (
	"regexp"
	"strings"
)

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9_\- ]+`)
	slugHyphens = regexp.MustCompile(`\s+`)
)

// Slugify reduces free text to a URL-safe slug: lowercase, alphanumerics
// plus underscore and hyphen, whitespace runs become single hyphens.
// Empty results fall back to "post" so downstream references always have
// a key.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugHyphens.ReplaceAllString(strings.TrimSpace(s), "-")
	if s == "" {
		return "post"
	}
	return s
}
