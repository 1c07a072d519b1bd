package postgres

import (
	"database/sql"

	json "github.com/goccy/go-json"

	"github.com/alderglen/lookout/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.Event.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		eventType  sql.NullString
		eventID    sql.NullString
		camera     sql.NullString
		beforeData []byte
		afterData  []byte
	)

	err := row.Scan(
		&e.ID,
		&eventType,
		&eventID,
		&camera,
		&beforeData,
		&afterData,
		&e.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}

	e.EventType = eventType.String
	e.EventID = eventID.String
	e.Camera = camera.String
	e.BeforeData = json.RawMessage(beforeData)
	e.AfterData = json.RawMessage(afterData)
	return &e, nil
}

// scanReview scans a single row into a model.Review.
// The row must contain columns in the order defined by reviewColumns.
func scanReview(row scannable) (*model.Review, error) {
	var r model.Review
	var (
		reviewType  sql.NullString
		zones       []byte
		objects     []byte
		clipURL     sql.NullString
		snapshotURL sql.NullString
		metadata    []byte
		reason      sql.NullString
		beforeData  []byte
		afterData   []byte
	)

	err := row.Scan(
		&r.ID,
		&reviewType,
		&r.ReviewID,
		&r.Camera,
		&zones,
		&objects,
		&clipURL,
		&snapshotURL,
		&r.Timestamp,
		&metadata,
		&reason,
		&r.IsAlert,
		&r.Source,
		&r.Status,
		&beforeData,
		&afterData,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.ReviewType = reviewType.String
	r.ClipURL = clipURL.String
	r.SnapshotURL = snapshotURL.String
	r.Reason = reason.String
	r.BeforeData = json.RawMessage(beforeData)
	r.AfterData = json.RawMessage(afterData)

	if len(zones) > 0 {
		if err := json.Unmarshal(zones, &r.Zones); err != nil {
			return nil, err
		}
	}
	if len(objects) > 0 {
		if err := json.Unmarshal(objects, &r.Objects); err != nil {
			return nil, err
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// scanTrackedObject scans a single row into a model.TrackedObject.
// The row must contain columns in the order defined by trackedObjectColumns.
func scanTrackedObject(row scannable) (*model.TrackedObject, error) {
	var o model.TrackedObject
	var (
		objectType sql.NullString
		objectID   sql.NullString
		camera     sql.NullString
		beforeData []byte
		afterData  []byte
	)

	err := row.Scan(
		&o.ID,
		&objectType,
		&objectID,
		&camera,
		&beforeData,
		&afterData,
		&o.ReceivedAt,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.TrackedObjectType = objectType.String
	o.TrackedObjectID = objectID.String
	o.Camera = camera.String
	o.BeforeData = json.RawMessage(beforeData)
	o.AfterData = json.RawMessage(afterData)
	return &o, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonbBytes returns nil for empty raw JSON so the column stores NULL
// instead of an empty string.
func jsonbBytes(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// jsonbStrings encodes a string list for a JSONB column; nil encodes as [].
func jsonbStrings(vals []string) []byte {
	if vals == nil {
		vals = []string{}
	}
	b, _ := json.Marshal(vals)
	return b
}

// jsonbValue encodes an arbitrary value for a JSONB column.
func jsonbValue(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
