package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// TrackedObject is a persisted object-tracking update. Insert-only, like
// events.
type TrackedObject struct {
	ID                int64           `json:"id"`
	TrackedObjectType string          `json:"tracked_object_type"`
	TrackedObjectID   string          `json:"tracked_object_id"`
	Camera            string          `json:"camera"`
	BeforeData        json.RawMessage `json:"before_data,omitempty"`
	AfterData         json.RawMessage `json:"after_data,omitempty"`
	ReceivedAt        time.Time       `json:"received_at"`
	CreatedAt         time.Time       `json:"created_at"`
}
