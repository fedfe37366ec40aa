package store

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/roach88/riskledger/internal/event"
)

func TestMarshalRegistry_Deterministic(t *testing.T) {
	reg := event.NewRegistry()
	reg.LastRebuild = "2025-09-24"
	reg.Events = []*event.Event{
		storedEvent("energy-01", "energy", 74, "2025-09-24"),
		storedEvent("shipping-01", "shipping", 62, "2025-09-20"),
	}

	first, err := MarshalRegistry(reg)
	if err != nil {
		t.Fatalf("first MarshalRegistry() failed: %v", err)
	}
	second, err := MarshalRegistry(reg)
	if err != nil {
		t.Fatalf("second MarshalRegistry() failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("identical registries should marshal to identical bytes")
	}
}

func TestMarshalRegistry_NoHTMLEscaping(t *testing.T) {
	ev := storedEvent("energy-01", "energy", 74, "2025-09-24")
	ev.Sources = []string{"https://example.com/wire?id=7&lang=en"}

	reg := event.NewRegistry()
	reg.Events = []*event.Event{ev}

	data, err := MarshalRegistry(reg)
	if err != nil {
		t.Fatalf("MarshalRegistry() failed: %v", err)
	}

	if !bytes.Contains(data, []byte("https://example.com/wire?id=7&lang=en")) {
		t.Error("source URL should survive marshaling unescaped")
	}
	if bytes.Contains(data, []byte(`\u0026`)) {
		t.Error("ampersands should not be HTML-escaped")
	}
}

func TestMarshalRegistry_HumanDiffable(t *testing.T) {
	reg := event.NewRegistry()
	reg.Events = []*event.Event{storedEvent("energy-01", "energy", 74, "2025-09-24")}

	data, err := MarshalRegistry(reg)
	if err != nil {
		t.Fatalf("MarshalRegistry() failed: %v", err)
	}

	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("output should end with a trailing newline")
	}
	if !bytes.Contains(data, []byte("\n  \"version\"")) {
		t.Error("output should be indented with two spaces")
	}
}

func TestMarshalRegistry_RoundTrip(t *testing.T) {
	reg := event.NewRegistry()
	reg.LastRebuild = "2025-09-24"
	reg.Events = []*event.Event{
		storedEvent("energy-01", "energy", 74, "2025-09-24"),
		storedEvent("shipping-01", "shipping", 62, "2025-09-20"),
	}

	data, err := MarshalRegistry(reg)
	if err != nil {
		t.Fatalf("MarshalRegistry() failed: %v", err)
	}

	loaded, err := UnmarshalRegistry(data)
	if err != nil {
		t.Fatalf("UnmarshalRegistry() failed: %v", err)
	}

	if !reflect.DeepEqual(reg, loaded) {
		t.Errorf("round trip mismatch:\nmarshaled:   %+v\nunmarshaled: %+v", reg, loaded)
	}
}

func TestUnmarshalRegistry_NilEvents(t *testing.T) {
	reg, err := UnmarshalRegistry([]byte(`{"version": 1}`))
	if err != nil {
		t.Fatalf("UnmarshalRegistry() failed: %v", err)
	}

	if reg.Version != 1 {
		t.Errorf("Version = %d, want 1", reg.Version)
	}
	if reg.Events == nil {
		t.Error("Events should be an empty slice, not nil")
	}
	if len(reg.Events) != 0 {
		t.Errorf("len(Events) = %d, want 0", len(reg.Events))
	}
}

func TestUnmarshalRegistry_Invalid(t *testing.T) {
	if _, err := UnmarshalRegistry([]byte("{not json")); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}
