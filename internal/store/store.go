package store

import (
	"context"
	"errors"

	"github.com/alderglen/lookout/internal/model"
)

// ErrNotFound is returned by point lookups when no row matches the key.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for normalized records.
type Store interface {
	// Events: insert-only, no dedup by event_id.
	InsertEvent(ctx context.Context, e *model.Event) error
	ListEvents(ctx context.Context, limit int) ([]*model.Event, error)

	// Reviews: idempotent by review_id. UpsertReview inserts a new row or
	// overwrites every field of an existing one in a single statement.
	UpsertReview(ctx context.Context, r *model.Review) error
	GetReview(ctx context.Context, reviewID string) (*model.Review, error)
	ListReviews(ctx context.Context, limit int) ([]*model.Review, error)

	// Tracked objects: insert-only, like events.
	InsertTrackedObject(ctx context.Context, o *model.TrackedObject) error
	ListTrackedObjects(ctx context.Context, limit int) ([]*model.TrackedObject, error)

	// Lifecycle
	Close() error
}
