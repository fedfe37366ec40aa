package event

import (
	"net/url"
	"strings"
)

// CanonicalizeURL normalizes a source URL so that differently-written
// citations of the same page compare equal:
//
//   - scheme defaults to https and is lowercased, as is the host
//   - a bare domain supplied as a path component (contains a dot, no
//     slash, no host) is promoted to the host
//   - a trailing slash is stripped from non-root paths
//   - query string and fragment are dropped
//
// Empty input returns "". Input that does not parse at all is returned
// trimmed but otherwise untouched, so equal raw strings still deduplicate.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(u.Host)
	path := u.EscapedPath()
	if u.Opaque != "" {
		path = u.Opaque
	}

	if host == "" && path != "" {
		candidate := strings.TrimLeft(path, "/")
		if candidate != "" && strings.Contains(candidate, ".") && !strings.Contains(candidate, "/") {
			host = strings.ToLower(candidate)
			path = ""
		}
	}
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimRight(path, "/")
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString(":")
	if host != "" {
		b.WriteString("//")
		b.WriteString(host)
	}
	b.WriteString(path)
	return b.String()
}
