// Package bus owns the subscription to the camera-analytics message bus.
package bus

import "github.com/alderglen/lookout/internal/model"

// The three fixed subjects the relay subscribes to.
const (
	TopicEvents         = "frigate.events"
	TopicReviews        = "frigate.reviews"
	TopicTrackedObjects = "frigate.tracked_object_update"
)

// Topics lists the fixed subscription set.
func Topics() []string {
	return []string{TopicEvents, TopicReviews, TopicTrackedObjects}
}

// KindForTopic maps a subject to its record kind. Unknown subjects return
// false and are ignored by dispatch.
func KindForTopic(topic string) (model.Kind, bool) {
	switch topic {
	case TopicEvents:
		return model.KindEvent, true
	case TopicReviews:
		return model.KindReview, true
	case TopicTrackedObjects:
		return model.KindTrackedObject, true
	}
	return "", false
}

// Handler consumes one raw delivery from a subscribed topic.
type Handler func(topic string, payload []byte)

// Bus is the subscriber surface the HTTP server and CLI depend on.
type Bus interface {
	// Connect establishes the connection and subscribes the fixed topics,
	// dispatching every delivery to handler. Idempotent: calling Connect
	// while a connection is live is a no-op.
	Connect(handler Handler) error
	// Connected reports whether a live connection exists.
	Connected() bool
	// Disconnect closes the connection and clears the handle so a later
	// Connect starts fresh.
	Disconnect()
}
