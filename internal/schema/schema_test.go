package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conformingPacket = `{
  "as_of": "2025-09-24",
  "clusters": [
    {
      "name": "shipping",
      "summary": "Typhoon watch across southern ports.",
      "sources": ["https://example.com/wire"]
    }
  ],
  "events_update": [
    {
      "uid": "evt-ragasa",
      "fingerprint_fields": {
        "cluster": "Shipping",
        "event_type": "Typhoon Disruption",
        "primary_entities": ["Typhoon Ragasa"],
        "geography": ["china south", "vietnam"],
        "instruments": ["port operations"],
        "mechanism": "natural shock supply chains"
      },
      "title": "Typhoon Ragasa Triggers Port & Power Disruptions",
      "phase": "watch",
      "score": 62,
      "confidence": "medium",
      "indicators": {"port_closures": "3 major hubs"},
      "tripwires": ["Reopening slips past 72h"],
      "rationale": ["Multiple ports shut simultaneously"],
      "sources": ["https://example.com/ragasa"],
      "brief": {
        "slug": "ragasa-watch",
        "title": "Ragasa Watch",
        "format": "html",
        "content": "<p>Ports closed ahead of landfall.</p>"
      }
    }
  ],
  "post": {"title": "Daily risk wire", "format": "md", "content": "Summary."}
}`

// mutatePacket decodes the conforming packet, applies the mutation and
// re-encodes it.
func mutatePacket(t *testing.T, mutate func(p map[string]any)) []byte {
	t.Helper()
	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(conformingPacket), &p))
	mutate(p)
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return data
}

func firstEvent(p map[string]any) map[string]any {
	return p["events_update"].([]any)[0].(map[string]any)
}

func issueFields(issues []Issue) []string {
	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func TestValidateConformingPacket(t *testing.T) {
	issues := Validate([]byte(conformingPacket))
	assert.Empty(t, issues, "conforming packet should produce no issues")
}

func TestValidateReportsEveryMissingKey(t *testing.T) {
	issues := Validate([]byte(`{}`))
	require.Len(t, issues, 4)
	assert.Equal(t, []string{"as_of", "clusters", "events_update", "post"}, issueFields(issues))
	for _, issue := range issues {
		assert.Equal(t, "required top-level key is missing", issue.Message)
	}
}

func TestValidateReportsSingleMissingKey(t *testing.T) {
	data := mutatePacket(t, func(p map[string]any) {
		delete(p, "post")
	})
	issues := Validate(data)
	require.Len(t, issues, 1)
	assert.Equal(t, "post", issues[0].Field)
}

func TestValidateRejectsBadDateShape(t *testing.T) {
	data := mutatePacket(t, func(p map[string]any) {
		p["as_of"] = "2025/09/24"
	})
	issues := Validate(data)
	require.NotEmpty(t, issues)
	assert.Contains(t, issueFields(issues), "as_of")
}

func TestValidateRejectsUnknownPhase(t *testing.T) {
	data := mutatePacket(t, func(p map[string]any) {
		firstEvent(p)["phase"] = "Escalating"
	})
	issues := Validate(data)
	require.NotEmpty(t, issues)
	assert.Contains(t, issueFields(issues), "events_update.0.phase")
}

func TestValidateRejectsUnknownConfidence(t *testing.T) {
	data := mutatePacket(t, func(p map[string]any) {
		firstEvent(p)["confidence"] = "certain"
	})
	issues := Validate(data)
	require.NotEmpty(t, issues)
	assert.Contains(t, issueFields(issues), "events_update.0.confidence")
}

func TestValidateScoreForms(t *testing.T) {
	numeric := mutatePacket(t, func(p map[string]any) {
		firstEvent(p)["score"] = 70.5
	})
	assert.Empty(t, Validate(numeric), "numeric score should conform")

	stringForm := mutatePacket(t, func(p map[string]any) {
		firstEvent(p)["score"] = "70"
	})
	assert.Empty(t, Validate(stringForm), "string score should conform")

	boolean := mutatePacket(t, func(p map[string]any) {
		firstEvent(p)["score"] = true
	})
	issues := Validate(boolean)
	require.NotEmpty(t, issues)
	assert.Contains(t, issueFields(issues), "events_update.0.score")
}

func TestValidateAllowsExtraFields(t *testing.T) {
	data := mutatePacket(t, func(p map[string]any) {
		p["pipeline_hint"] = map[string]any{"model": "deep-research"}
		firstEvent(p)["why_now"] = "Back-to-back closures in one basin."
	})
	assert.Empty(t, Validate(data), "open structs should admit extra fields")
}

func TestValidateMalformedJSON(t *testing.T) {
	issues := Validate([]byte(`{"as_of": "2025-09-24",`))
	require.NotEmpty(t, issues)
	assert.Equal(t, "packet", issues[0].Field)
	assert.NotEmpty(t, issues[0].Message)
}

func TestValidateNonObjectDocument(t *testing.T) {
	issues := Validate([]byte(`[1, 2, 3]`))
	assert.NotEmpty(t, issues, "a non-object document cannot be a packet")
}

func TestValidateIssuesCarryPositions(t *testing.T) {
	data := mutatePacket(t, func(p map[string]any) {
		p["as_of"] = "someday"
	})
	issues := Validate(data)
	require.NotEmpty(t, issues)
	assert.True(t, issues[0].Pos.IsValid(), "shape violations should carry a source position")
}

func TestIssueErrorFormat(t *testing.T) {
	issue := &Issue{Field: "as_of", Message: "required top-level key is missing"}
	assert.Equal(t, "as_of: required top-level key is missing", issue.Error())
}
