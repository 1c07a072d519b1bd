// Package ingest implements the bus-to-store pipeline: payload
// normalization, the recent-message buffer, and supervised persistence.
package ingest

import (
	"errors"
	"time"

	"github.com/alderglen/lookout/internal/model"
)

// Rejection reasons. A rejected record is dropped before any write.
var (
	ErrMissingID     = errors.New("missing identifier in both snapshots")
	ErrMissingCamera = errors.New("missing camera in both snapshots")
)

// Normalizer turns raw bus envelopes into canonical records. It is pure:
// the only ambient input is the clock, injectable for tests.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

func NewNormalizer(loc *time.Location) *Normalizer {
	return &Normalizer{loc: loc, now: time.Now}
}

// coalesce returns the first non-nil value. Every field resolution follows
// the same fallback order: after snapshot, then before, then a default.
func coalesce[T any](vals ...*T) (T, bool) {
	for _, v := range vals {
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

// coalesceList returns the first list that was present in the input (a
// decoded empty list counts as present), else an empty list.
func coalesceList(vals ...[]string) []string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return []string{}
}

// Event normalizes a detection-event envelope.
func (n *Normalizer) Event(env *model.Envelope) (*model.Event, error) {
	id, ok := coalesce(env.After.GetID(), env.Before.GetID())
	if !ok {
		return nil, ErrMissingID
	}
	camera, ok := coalesce(env.After.GetCamera(), env.Before.GetCamera())
	if !ok {
		return nil, ErrMissingCamera
	}

	return &model.Event{
		EventType:  env.Type,
		EventID:    id,
		Camera:     camera,
		BeforeData: env.Before.GetRaw(),
		AfterData:  env.After.GetRaw(),
		ReceivedAt: n.timeNow(),
	}, nil
}

// Review normalizes a review-lifecycle envelope.
func (n *Normalizer) Review(env *model.Envelope) (*model.Review, error) {
	id, ok := coalesce(env.After.GetID(), env.Before.GetID())
	if !ok {
		return nil, ErrMissingID
	}
	camera, ok := coalesce(env.After.GetCamera(), env.Before.GetCamera())
	if !ok {
		return nil, ErrMissingCamera
	}

	clipURL, _ := coalesce(
		env.After.GetClipPath(), env.Before.GetClipPath(),
		env.After.GetClipURL(), env.Before.GetClipURL(),
	)
	snapshotURL, _ := coalesce(
		env.After.GetThumbPath(), env.Before.GetThumbPath(),
		env.After.GetSnapshotURL(), env.Before.GetSnapshotURL(),
	)

	severity := "unknown"
	if s, ok := coalesce(env.After.GetSeverity(), env.Before.GetSeverity()); ok {
		severity = s
	}

	sevAfter := env.After.GetSeverity()
	sevBefore := env.Before.GetSeverity()
	isAlert := (sevAfter != nil && *sevAfter == model.SeverityAlert) ||
		(sevBefore != nil && *sevBefore == model.SeverityAlert)

	return &model.Review{
		ReviewType:  env.Type,
		ReviewID:    id,
		Camera:      camera,
		Zones:       coalesceList(env.After.GetZones(), env.Before.GetZones()),
		Objects:     coalesceList(env.After.GetObjects(), env.Before.GetObjects()),
		ClipURL:     clipURL,
		SnapshotURL: snapshotURL,
		Timestamp:   n.reviewTimestamp(env.After),
		Metadata: model.ReviewMetadata{
			Severity:   severity,
			Detections: coalesceList(env.After.GetDetections(), env.Before.GetDetections()),
			SubLabels:  coalesceList(env.After.GetSubLabels(), env.Before.GetSubLabels()),
			Audio:      coalesceList(env.After.GetAudio(), env.Before.GetAudio()),
		},
		Reason:  severity,
		IsAlert: isAlert,
		Source:  model.SourceFrigate,
		// Status is never derived from input: it signals "awaiting
		// downstream processing" to the external reviewer.
		Status:     model.StatusWaiting,
		BeforeData: env.Before.GetRaw(),
		AfterData:  env.After.GetRaw(),
		CreatedAt:  n.timeNow(),
	}, nil
}

// TrackedObject normalizes an object-tracking envelope.
func (n *Normalizer) TrackedObject(env *model.Envelope) (*model.TrackedObject, error) {
	id, ok := coalesce(env.After.GetID(), env.Before.GetID())
	if !ok {
		return nil, ErrMissingID
	}
	camera, ok := coalesce(env.After.GetCamera(), env.Before.GetCamera())
	if !ok {
		return nil, ErrMissingCamera
	}

	now := n.timeNow()
	return &model.TrackedObject{
		TrackedObjectType: env.Type,
		TrackedObjectID:   id,
		Camera:            camera,
		BeforeData:        env.Before.GetRaw(),
		AfterData:         env.After.GetRaw(),
		ReceivedAt:        now,
		CreatedAt:         now,
	}, nil
}

// reviewTimestamp resolves the review event time: after end_time, else
// after start_time, else now.
func (n *Normalizer) reviewTimestamp(after *model.Snapshot) time.Time {
	if t := after.GetEndTime(); t != nil {
		return n.epoch(*t)
	}
	if t := after.GetStartTime(); t != nil {
		return n.epoch(*t)
	}
	return n.timeNow()
}

// epoch converts upstream epoch seconds to the display time zone.
func (n *Normalizer) epoch(sec float64) time.Time {
	return time.Unix(int64(sec), 0).In(n.loc)
}

func (n *Normalizer) timeNow() time.Time {
	return n.now().In(n.loc).Truncate(time.Second)
}
