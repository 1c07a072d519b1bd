package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// Event is a persisted detection occurrence from the events subject.
// Every delivery produces a new row; event_id is not deduplicated.
type Event struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EventID    string          `json:"event_id"`
	Camera     string          `json:"camera"`
	BeforeData json.RawMessage `json:"before_data,omitempty"`
	AfterData  json.RawMessage `json:"after_data,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}
