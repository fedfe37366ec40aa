package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePacketValid(t *testing.T) {
	p, err := ParsePacket([]byte(`{
		"as_of": " 2025-09-24 ",
		"clusters": [{"name": "shipping"}],
		"events_update": [
			{"title": "Typhoon Ragasa", "score": 62, "fingerprint_fields": {"cluster": "shipping"}}
		],
		"post": {"slug": "daily", "title": "Daily Brief"}
	}`))

	require.NoError(t, err)
	assert.Equal(t, "2025-09-24", p.AsOf, "as_of is trimmed")
	require.Len(t, p.EventsUpdate, 1)
	assert.Equal(t, "Typhoon Ragasa", p.EventsUpdate[0].Title)
	assert.Equal(t, "shipping", p.EventsUpdate[0].Fields.Cluster)
}

func TestParsePacketMissingKeys(t *testing.T) {
	_, err := ParsePacket([]byte(`{"as_of": "2025-09-24"}`))

	require.Error(t, err)
	assert.EqualError(t, err, "packet is missing required keys: clusters, events_update, post")
}

func TestParsePacketMissingKeysSorted(t *testing.T) {
	_, err := ParsePacket([]byte(`{"events_update": []}`))

	require.Error(t, err)
	assert.EqualError(t, err, "packet is missing required keys: as_of, clusters, post")
}

func TestParsePacketBlankAsOf(t *testing.T) {
	_, err := ParsePacket([]byte(`{"as_of": "  ", "clusters": [], "events_update": [], "post": {}}`))

	require.Error(t, err)
	assert.EqualError(t, err, "packet as_of is required")
}

func TestParsePacketUnparseableAsOf(t *testing.T) {
	_, err := ParsePacket([]byte(`{"as_of": "Sept 24", "clusters": [], "events_update": [], "post": {}}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), `packet as_of "Sept 24"`)
}

func TestParsePacketMalformedJSON(t *testing.T) {
	_, err := ParsePacket([]byte(`{"as_of": `))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode packet")
}

func TestParsePacketScoreForms(t *testing.T) {
	p, err := ParsePacket([]byte(`{
		"as_of": "2025-09-24",
		"clusters": [],
		"post": {},
		"events_update": [
			{"title": "number", "score": 70},
			{"title": "numeric string", "score": " 70.5 "},
			{"title": "garbage", "score": "n/a"},
			{"title": "null", "score": null},
			{"title": "absent"}
		]
	}`))

	require.NoError(t, err)
	require.Len(t, p.EventsUpdate, 5)
	assert.Equal(t, 70.0, float64(p.EventsUpdate[0].Score))
	assert.Equal(t, 70.5, float64(p.EventsUpdate[1].Score))
	assert.Equal(t, 0.0, float64(p.EventsUpdate[2].Score), "unusable scores recover to zero")
	assert.Equal(t, 0.0, float64(p.EventsUpdate[3].Score))
	assert.Equal(t, 0.0, float64(p.EventsUpdate[4].Score))
}

func TestParsePacketNullRequiredValueStillCountsAsPresent(t *testing.T) {
	// Presence is an envelope check; null contents decode to their zero
	// values and flow through the normal update path.
	p, err := ParsePacket([]byte(`{
		"as_of": "2025-09-24",
		"clusters": null,
		"events_update": null,
		"post": null
	}`))

	require.NoError(t, err)
	assert.Empty(t, p.EventsUpdate)
}
