package model

import (
	"strings"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	raw := []byte(`{
		"type": "update",
		"before": {"id": "r1", "camera": "front", "severity": "detection"},
		"after": {
			"id": "r1",
			"camera": "front",
			"severity": "alert",
			"start_time": 1000,
			"end_time": 2000,
			"clip_path": "/clips/r1.mp4",
			"data": {"zones": ["driveway"], "objects": ["person"], "detections": ["d1"]}
		}
	}`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope() error: %v", err)
	}

	if env.Type != "update" {
		t.Errorf("Type = %q, want %q", env.Type, "update")
	}
	if got := env.After.GetID(); got == nil || *got != "r1" {
		t.Errorf("After.GetID() = %v, want r1", got)
	}
	if got := env.After.GetSeverity(); got == nil || *got != "alert" {
		t.Errorf("After.GetSeverity() = %v, want alert", got)
	}
	if got := env.After.GetEndTime(); got == nil || *got != 2000 {
		t.Errorf("After.GetEndTime() = %v, want 2000", got)
	}
	if got := env.After.GetZones(); len(got) != 1 || got[0] != "driveway" {
		t.Errorf("After.GetZones() = %v, want [driveway]", got)
	}
}

func TestParseEnvelope_PreservesRawSnapshots(t *testing.T) {
	raw := []byte(`{"type":"new","after":{"id":"e1","camera":"back","label":"person","score":0.92}}`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope() error: %v", err)
	}

	// Raw keeps fields the typed snapshot does not model.
	got := string(env.After.GetRaw())
	if !strings.Contains(got, `"label":"person"`) {
		t.Errorf("After.GetRaw() = %s, want to contain label field", got)
	}
	if env.Before.GetRaw() != nil {
		t.Errorf("Before.GetRaw() = %s, want nil for absent snapshot", env.Before.GetRaw())
	}
}

func TestParseEnvelope_Malformed(t *testing.T) {
	if _, err := ParseEnvelope([]byte(`{not json`)); err == nil {
		t.Fatal("ParseEnvelope() with malformed input should error")
	}
}

func TestSnapshotGetters_NilSafe(t *testing.T) {
	var s *Snapshot
	if s.GetID() != nil || s.GetCamera() != nil || s.GetSeverity() != nil {
		t.Error("nil snapshot string getters should return nil")
	}
	if s.GetStartTime() != nil || s.GetEndTime() != nil {
		t.Error("nil snapshot time getters should return nil")
	}
	if s.GetZones() != nil || s.GetObjects() != nil || s.GetAudio() != nil {
		t.Error("nil snapshot list getters should return nil")
	}
	if s.GetRaw() != nil {
		t.Error("nil snapshot GetRaw should return nil")
	}

	// Present snapshot with absent data block.
	withID := &Snapshot{}
	if withID.GetZones() != nil {
		t.Error("snapshot without data block should return nil zones")
	}
}

func TestSnapshot_EmptyListDistinctFromAbsent(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"new","after":{"id":"r1","camera":"c","data":{"zones":[]}}}`))
	if err != nil {
		t.Fatalf("ParseEnvelope() error: %v", err)
	}
	if env.After.GetZones() == nil {
		t.Error("explicit empty zones should decode non-nil")
	}
	if env.After.GetObjects() != nil {
		t.Error("absent objects should decode nil")
	}
}
