// Package schema validates research packets against the embedded CUE
// contract and repairs the glitches upstream emitters are known to
// produce. Validation reports violations with source positions; repair
// is a separate, opt-in pass so callers can inspect a packet untouched.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed packet.cue
var packetCUE string

// Issue is a single schema violation with CUE position info.
type Issue struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Issue) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks raw packet JSON against the embedded schema. It returns
// one Issue per violation; nil means the packet conforms. Malformed JSON
// is reported as an Issue on the "packet" field rather than an error, so
// callers get a uniform report shape.
func Validate(data []byte) []Issue {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(packetCUE, cue.Filename("packet.cue"))
	if err := schemaVal.Err(); err != nil {
		return []Issue{{Field: "schema", Message: fmt.Sprintf("compiling packet schema: %v", err)}}
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Packet"))
	if !def.Exists() {
		return []Issue{{Field: "schema", Message: "packet schema has no #Packet definition"}}
	}

	// JSON is a subset of CUE, so the document compiles directly.
	doc := ctx.CompileBytes(data, cue.Filename("packet.json"))
	if err := doc.Err(); err != nil {
		return issuesFromError(err)
	}

	issues := missingKeyIssues(data)

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		issues = append(issues, issuesFromError(err)...)
	}
	return issues
}

// requiredKeys must be present at the top level. The schema marks them
// optional so the shape check and the presence check report separately.
var requiredKeys = []string{"as_of", "clusters", "events_update", "post"}

func missingKeyIssues(data []byte) []Issue {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		// Not a JSON object; the unification pass reports that.
		return nil
	}
	var issues []Issue
	for _, key := range requiredKeys {
		if _, ok := probe[key]; !ok {
			issues = append(issues, Issue{Field: key, Message: "required top-level key is missing"})
		}
	}
	return issues
}

// issuesFromError expands a CUE error list into Issues. Paths are
// reported relative to the packet root.
func issuesFromError(err error) []Issue {
	var issues []Issue
	for _, e := range errors.Errors(err) {
		path := e.Path()
		if len(path) > 0 && path[0] == "#Packet" {
			path = path[1:]
		}
		format, args := e.Msg()
		issue := Issue{
			Field:   strings.Join(path, "."),
			Message: fmt.Sprintf(format, args...),
		}
		if issue.Field == "" {
			issue.Field = "packet"
		}
		if positions := errors.Positions(e); len(positions) > 0 {
			issue.Pos = positions[0]
		}
		issues = append(issues, issue)
	}
	return issues
}
