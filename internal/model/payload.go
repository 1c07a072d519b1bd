package model

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Envelope is the wire shape shared by all three bus subjects: a type tag
// plus optional before/after snapshots of the upstream entity.
type Envelope struct {
	Type   string    `json:"type"`
	Before *Snapshot `json:"before,omitempty"`
	After  *Snapshot `json:"after,omitempty"`
}

// ParseEnvelope decodes one raw bus payload.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	return &env, nil
}

// Snapshot is the entity state carried on one side of a before/after delta.
// Fields are pointers so absent and zero-valued inputs stay distinguishable;
// Raw preserves the undecoded snapshot for storage.
type Snapshot struct {
	ID          *string       `json:"id,omitempty"`
	Camera      *string       `json:"camera,omitempty"`
	Severity    *string       `json:"severity,omitempty"`
	StartTime   *float64      `json:"start_time,omitempty"`
	EndTime     *float64      `json:"end_time,omitempty"`
	ClipPath    *string       `json:"clip_path,omitempty"`
	ClipURL     *string       `json:"clip_url,omitempty"`
	ThumbPath   *string       `json:"thumb_path,omitempty"`
	SnapshotURL *string       `json:"snapshot_url,omitempty"`
	Data        *SnapshotData `json:"data,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// SnapshotData holds the nested detection detail lists.
type SnapshotData struct {
	Zones      []string `json:"zones,omitempty"`
	Objects    []string `json:"objects,omitempty"`
	Detections []string `json:"detections,omitempty"`
	SubLabels  []string `json:"sub_labels,omitempty"`
	Audio      []string `json:"audio,omitempty"`
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	type alias Snapshot
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*s = Snapshot(a)
	s.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// Nil-safe accessors. The normalizer's fallback chains read fields through
// these so a missing snapshot behaves like a snapshot with missing fields.

func (s *Snapshot) GetID() *string {
	if s == nil {
		return nil
	}
	return s.ID
}

func (s *Snapshot) GetCamera() *string {
	if s == nil {
		return nil
	}
	return s.Camera
}

func (s *Snapshot) GetSeverity() *string {
	if s == nil {
		return nil
	}
	return s.Severity
}

func (s *Snapshot) GetStartTime() *float64 {
	if s == nil {
		return nil
	}
	return s.StartTime
}

func (s *Snapshot) GetEndTime() *float64 {
	if s == nil {
		return nil
	}
	return s.EndTime
}

func (s *Snapshot) GetClipPath() *string {
	if s == nil {
		return nil
	}
	return s.ClipPath
}

func (s *Snapshot) GetClipURL() *string {
	if s == nil {
		return nil
	}
	return s.ClipURL
}

func (s *Snapshot) GetThumbPath() *string {
	if s == nil {
		return nil
	}
	return s.ThumbPath
}

func (s *Snapshot) GetSnapshotURL() *string {
	if s == nil {
		return nil
	}
	return s.SnapshotURL
}

func (s *Snapshot) GetRaw() json.RawMessage {
	if s == nil {
		return nil
	}
	return s.Raw
}

func (s *Snapshot) GetZones() []string {
	if s == nil || s.Data == nil {
		return nil
	}
	return s.Data.Zones
}

func (s *Snapshot) GetObjects() []string {
	if s == nil || s.Data == nil {
		return nil
	}
	return s.Data.Objects
}

func (s *Snapshot) GetDetections() []string {
	if s == nil || s.Data == nil {
		return nil
	}
	return s.Data.Detections
}

func (s *Snapshot) GetSubLabels() []string {
	if s == nil || s.Data == nil {
		return nil
	}
	return s.Data.SubLabels
}

func (s *Snapshot) GetAudio() []string {
	if s == nil || s.Data == nil {
		return nil
	}
	return s.Data.Audio
}
