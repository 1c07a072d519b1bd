package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lib/pq"

	"github.com/alderglen/lookout/internal/model"
	"github.com/alderglen/lookout/internal/store"
)

// Sink persists one canonical record per call. Every attempt and its
// outcome are logged with structured detail; failures are terminal for
// that single write, with no retry.
type Sink struct {
	store  store.Store
	logger *slog.Logger
}

func NewSink(s store.Store, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{store: s, logger: logger}
}

// WriteEvent inserts a detection event. Events are never deduplicated:
// every delivery produces a new row, even for a repeated event_id.
func (s *Sink) WriteEvent(ctx context.Context, e *model.Event) error {
	s.logger.Info("event insert attempt",
		"event_id", e.EventID, "event_type", e.EventType, "camera", e.Camera)
	if err := s.store.InsertEvent(ctx, e); err != nil {
		s.logFailure("event insert failed", err, "event_id", e.EventID)
		return err
	}
	s.logger.Info("event insert ok", "event_id", e.EventID)
	return nil
}

// WriteReview upserts a review by its natural key.
func (s *Sink) WriteReview(ctx context.Context, r *model.Review) error {
	s.logger.Info("review upsert attempt",
		"review_id", r.ReviewID, "review_type", r.ReviewType, "camera", r.Camera,
		"is_alert", r.IsAlert, "status", r.Status)
	if err := s.store.UpsertReview(ctx, r); err != nil {
		s.logFailure("review upsert failed", err, "review_id", r.ReviewID)
		return err
	}
	s.logger.Info("review upsert ok", "review_id", r.ReviewID)
	return nil
}

// WriteTrackedObject inserts a tracked-object update.
func (s *Sink) WriteTrackedObject(ctx context.Context, o *model.TrackedObject) error {
	s.logger.Info("tracked object insert attempt",
		"tracked_object_id", o.TrackedObjectID, "tracked_object_type", o.TrackedObjectType,
		"camera", o.Camera)
	if err := s.store.InsertTrackedObject(ctx, o); err != nil {
		s.logFailure("tracked object insert failed", err, "tracked_object_id", o.TrackedObjectID)
		return err
	}
	s.logger.Info("tracked object insert ok", "tracked_object_id", o.TrackedObjectID)
	return nil
}

// logFailure reports a failed write with the driver's structured error
// detail when the sink provides one.
func (s *Sink) logFailure(msg string, err error, args ...any) {
	args = append(args, "class", classify(err), "err", err)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		args = append(args,
			"code", string(pqErr.Code),
			"detail", pqErr.Detail,
			"hint", pqErr.Hint,
		)
	}
	s.logger.Error(msg, args...)
}

// classify splits persistence failures into "rejected" (the sink refused
// the record: constraint violation or bad shape) and "unreachable"
// (connectivity or anything else).
func classify(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23": // data exception, integrity constraint violation
			return "rejected"
		}
	}
	return "unreachable"
}
