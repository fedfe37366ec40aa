package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

var (
	// Spelled-out or suffixed numbers break JSON parsing before any
	// structural repair can run, so these operate on the raw text.
	scoreWordRe    = regexp.MustCompile(`(?i)("score"\s*:\s*)Fifty(\s*[,}])`)
	trailingPlusRe = regexp.MustCompile(`(:\s*)(\d+)\+(\s*[,}])`)

	markdownLinkRe         = regexp.MustCompile(`^\s*\[.*?\]\((.*?)\)\s*`)
	prefixedMarkdownLinkRe = regexp.MustCompile(`^https?:///\s*\[.*?\]\((.*?)\)\s*`)
)

var (
	validPhases      = map[string]bool{"watch": true, "elevated": true, "critical": true}
	validConfidences = map[string]bool{"high": true, "medium": true, "low": true}
)

// FixText repairs glitches that keep a packet from parsing as JSON at
// all: a literal "Fifty" where a score belongs, and "70+"-style numbers.
func FixText(raw []byte) []byte {
	fixed := scoreWordRe.ReplaceAll(raw, []byte("${1}50${2}"))
	fixed = trailingPlusRe.ReplaceAll(fixed, []byte("${1}${2}${3}"))
	return fixed
}

// Repair applies the standard packet fixups in place: enum fields fall
// back to their defaults, scores are clamped or defaulted to 50, missing
// uids are synthesized from cluster, title and as_of, markdown-wrapped
// source URLs are unwrapped, and brief slugs/titles are filled in.
// Unknown fields pass through untouched.
func Repair(packet map[string]any) {
	asOf := strings.TrimSpace(stringOr(packet["as_of"], ""))

	if events, ok := packet["events_update"].([]any); ok {
		for _, item := range events {
			if ev, ok := item.(map[string]any); ok {
				repairEvent(ev, asOf)
			}
		}
	}
	if clusters, ok := packet["clusters"].([]any); ok {
		for _, item := range clusters {
			if cl, ok := item.(map[string]any); ok {
				stripSourceLinks(cl)
			}
		}
	}

	post, _ := packet["post"].(map[string]any)
	if post == nil {
		post = map[string]any{}
	}
	format := strings.ToLower(strings.TrimSpace(stringOr(post["format"], "")))
	switch format {
	case "html", "md", "markdown":
	default:
		format = "md"
	}
	post["format"] = format
	packet["post"] = post
}

func repairEvent(ev map[string]any, asOf string) {
	phase := strings.ToLower(strings.TrimSpace(stringOr(ev["phase"], "")))
	if !validPhases[phase] {
		phase = "watch"
	}
	ev["phase"] = phase

	confidence := strings.ToLower(strings.TrimSpace(stringOr(ev["confidence"], "")))
	if !validConfidences[confidence] {
		confidence = "medium"
	}
	ev["confidence"] = confidence

	ev["score"] = clampScoreValue(ev["score"])

	if strings.TrimSpace(stringOr(ev["uid"], "")) == "" {
		ev["uid"] = synthesizeUID(ev, asOf)
	}
	stripSourceLinks(ev)

	if brief, ok := ev["brief"].(map[string]any); ok && len(brief) > 0 {
		seed := stringOr(brief["slug"], "")
		if seed == "" {
			seed = stringOr(brief["title"], "")
		}
		if seed == "" {
			seed = stringOr(ev["title"], "")
		}
		brief["slug"] = event.Slugify(seed)
		if stringOr(brief["title"], "") == "" {
			brief["title"] = stringOr(ev["title"], "")
		}
	}
}

// synthesizeUID builds "{cluster}__{slug}__{as_of}" the way resolved
// references expect, preferring the canonical cluster over the display
// one and falling back to "risk".
func synthesizeUID(ev map[string]any, asOf string) string {
	cluster := ""
	if ff, ok := ev["fingerprint_fields"].(map[string]any); ok {
		cluster = stringOr(ff["cluster"], "")
	}
	if cluster == "" {
		cluster = stringOr(ev["cluster"], "")
	}
	if cluster == "" {
		cluster = "risk"
	}
	title := stringOr(ev["title"], "")
	if title == "" {
		title = "event"
	}
	return strings.ToLower(cluster) + "__" + event.Slugify(title) + "__" + asOf
}

func stripSourceLinks(node map[string]any) {
	raw, ok := node["sources"].([]any)
	if !ok {
		return
	}
	cleaned := make([]any, len(raw))
	for i, s := range raw {
		cleaned[i] = stripMarkdownLink(fmt.Sprint(s))
	}
	node["sources"] = cleaned
}

// stripMarkdownLink unwraps "[label](url)" source entries, including the
// "https:///[label](url)" variant some emitters produce.
func stripMarkdownLink(u string) string {
	if m := markdownLinkRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	if m := prefixedMarkdownLinkRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return u
}

// clampScoreValue coerces a decoded score to [0, 100], defaulting to 50
// when the value is absent or unparseable.
func clampScoreValue(v any) float64 {
	switch s := v.(type) {
	case float64:
		return event.ClampScore(s)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 50
		}
		return event.ClampScore(f)
	default:
		return 50
	}
}

func stringOr(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}
