package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// marshalEvent serializes an event for the payload column. Struct field
// order is fixed and Go sorts map keys, so identical state always
// produces identical payload bytes.
func marshalEvent(ev *event.Event) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // Source URLs stay readable in the payload
	if err := enc.Encode(ev); err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalEvent parses a payload column back into an event.
func unmarshalEvent(data string) (*event.Event, error) {
	var ev event.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &ev, nil
}

// MarshalRegistry renders a registry as stable, human-diffable JSON for
// interchange files and snapshots: two-space indent, no HTML escaping,
// trailing newline.
func MarshalRegistry(reg *event.Registry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reg); err != nil {
		return nil, fmt.Errorf("marshal registry: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalRegistry parses a registry interchange file. Events is never
// nil on success.
func UnmarshalRegistry(data []byte) (*event.Registry, error) {
	var reg event.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("unmarshal registry: %w", err)
	}
	if reg.Events == nil {
		reg.Events = []*event.Event{}
	}
	return &reg, nil
}
