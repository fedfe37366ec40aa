package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// PacketSuffix is the filename suffix research batches arrive under.
const PacketSuffix = ".packet.json"

// requiredPacketKeys must all be present at the top level before any update
// is consumed, so a truncated batch can never mutate the registry.
var requiredPacketKeys = []string{"as_of", "clusters", "events_update", "post"}

// Packet is one upstream research batch. Clusters, post, and briefings are
// carried for collaborators that render pages from them; the ingestion
// engine itself only consumes as_of and events_update.
type Packet struct {
	AsOf         string           `json:"as_of"`
	Clusters     []map[string]any `json:"clusters"`
	EventsUpdate []*event.Update  `json:"events_update"`
	Post         map[string]any   `json:"post"`
	Briefings    []map[string]any `json:"briefings,omitempty"`
}

// ParsePacket decodes one batch and rejects it whole when the envelope is
// unusable: malformed JSON, a missing required key, or a blank or
// unparseable as_of date are all fatal.
func ParsePacket(data []byte) (*Packet, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}

	var missing []string
	for _, key := range requiredPacketKeys {
		if _, ok := probe[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("packet is missing required keys: %s", strings.Join(missing, ", "))
	}

	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}

	p.AsOf = strings.TrimSpace(p.AsOf)
	if p.AsOf == "" {
		return nil, errors.New("packet as_of is required")
	}
	if _, err := event.ParseDate(p.AsOf); err != nil {
		return nil, fmt.Errorf("packet as_of %q: %w", p.AsOf, err)
	}
	return &p, nil
}
