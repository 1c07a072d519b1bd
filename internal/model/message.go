package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// Kind identifies which of the three bus subjects a record came from.
// The values double as the polling API's type selector.
type Kind string

const (
	KindEvent         Kind = "events"
	KindReview        Kind = "reviews"
	KindTrackedObject Kind = "tracked_objects"
)

// Kinds lists the fixed set of record kinds.
func Kinds() []Kind {
	return []Kind{KindEvent, KindReview, KindTrackedObject}
}

// BufferedMessage is a raw bus payload annotated with its originating topic
// and arrival time, as held in the recent-message buffer.
type BufferedMessage struct {
	Topic      string          `json:"_topic"`
	ReceivedAt time.Time       `json:"_timestamp"`
	Payload    json.RawMessage `json:"payload"`
}
