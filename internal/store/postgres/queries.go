package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alderglen/lookout/internal/model"
	"github.com/alderglen/lookout/internal/store"
)

// Column lists used for SELECT statements.
const (
	eventColumns = `id, event_type, event_id, camera, before_data, after_data, received_at`

	reviewColumns = `id, review_type, review_id, camera, zones, objects,
	clip_url, snapshot_url, timestamp, metadata, reason, is_alert, source,
	status, before_data, after_data, created_at`

	trackedObjectColumns = `id, tracked_object_type, tracked_object_id, camera,
	before_data, after_data, received_at, created_at`
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryInsertEvent(ctx context.Context, db executor, e *model.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (
			event_type, event_id, camera, before_data, after_data, received_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		nullString(e.EventType),
		nullString(e.EventID),
		nullString(e.Camera),
		jsonbBytes(e.BeforeData),
		jsonbBytes(e.AfterData),
		e.ReceivedAt,
	)
	return err
}

func queryListEvents(ctx context.Context, db executor, limit int) ([]*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// queryUpsertReview inserts a review or overwrites every field of the
// existing row for the same review_id in one statement, so two deliveries
// for the same key can never produce duplicate rows.
func queryUpsertReview(ctx context.Context, db executor, r *model.Review) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO reviews (
			review_type, review_id, camera, zones, objects,
			clip_url, snapshot_url, timestamp, metadata, reason, is_alert,
			source, status, before_data, after_data, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)
		ON CONFLICT (review_id) DO UPDATE SET
			review_type = EXCLUDED.review_type,
			camera = EXCLUDED.camera,
			zones = EXCLUDED.zones,
			objects = EXCLUDED.objects,
			clip_url = EXCLUDED.clip_url,
			snapshot_url = EXCLUDED.snapshot_url,
			timestamp = EXCLUDED.timestamp,
			metadata = EXCLUDED.metadata,
			reason = EXCLUDED.reason,
			is_alert = EXCLUDED.is_alert,
			source = EXCLUDED.source,
			status = EXCLUDED.status,
			before_data = EXCLUDED.before_data,
			after_data = EXCLUDED.after_data,
			created_at = EXCLUDED.created_at`,
		nullString(r.ReviewType),
		r.ReviewID,
		r.Camera,
		jsonbStrings(r.Zones),
		jsonbStrings(r.Objects),
		nullString(r.ClipURL),
		nullString(r.SnapshotURL),
		r.Timestamp,
		jsonbValue(r.Metadata),
		nullString(r.Reason),
		r.IsAlert,
		r.Source,
		r.Status,
		jsonbBytes(r.BeforeData),
		jsonbBytes(r.AfterData),
		r.CreatedAt,
	)
	return err
}

func queryGetReview(ctx context.Context, db executor, reviewID string) (*model.Review, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE review_id = $1`, reviewID)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func queryListReviews(ctx context.Context, db executor, limit int) ([]*model.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func queryInsertTrackedObject(ctx context.Context, db executor, o *model.TrackedObject) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tracked_objects (
			tracked_object_type, tracked_object_id, camera,
			before_data, after_data, received_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		nullString(o.TrackedObjectType),
		nullString(o.TrackedObjectID),
		nullString(o.Camera),
		jsonbBytes(o.BeforeData),
		jsonbBytes(o.AfterData),
		o.ReceivedAt,
		o.CreatedAt,
	)
	return err
}

func queryListTrackedObjects(ctx context.Context, db executor, limit int) ([]*model.TrackedObject, error) {
	q := `SELECT ` + trackedObjectColumns + ` FROM tracked_objects ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []*model.TrackedObject
	for rows.Next() {
		o, err := scanTrackedObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}
