package event

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Case selects the letter case a token is normalized to.
type Case int

const (
	// CaseLower lowercases the token (entities, types, mechanisms).
	CaseLower Case = iota
	// CaseUpper uppercases the token (geography and instrument codes).
	CaseUpper
)

var (
	delimiterRuns  = regexp.MustCompile(`[\s/_-]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// NormalizeToken reduces a raw identity token to its comparable form.
// The token is trimmed and NFC-normalized, then delimiter runs
// (whitespace, slash, underscore, hyphen) collapse to a single space; with
// collapseDelimiters false only whitespace runs collapse, preserving
// slash/underscore/hyphen as-is (the cluster rule). Finally the requested
// case is applied. Empty input normalizes to "".
func NormalizeToken(value string, c Case, collapseDelimiters bool) string {
	token := strings.TrimSpace(value)
	if token == "" {
		return ""
	}
	token = norm.NFC.String(token)
	if collapseDelimiters {
		token = delimiterRuns.ReplaceAllString(token, " ")
	} else {
		token = whitespaceRuns.ReplaceAllString(token, " ")
	}
	if c == CaseUpper {
		return strings.ToUpper(token)
	}
	return strings.ToLower(token)
}

// NormalizeLabel trims and lowercases a free-text label (phase, confidence)
// for comparison. Unlike NormalizeToken it never touches inner characters.
func NormalizeLabel(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// DedupeStrings trims every value, drops empties, and keeps the first
// occurrence of each distinct value, preserving insertion order.
func DedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.TrimSpace(v)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
