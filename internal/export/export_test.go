package export

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/alderglen/lookout/internal/model"
)

// reviewStore is a minimal store serving a fixed review list.
type reviewStore struct {
	reviews []*model.Review
	err     error
}

func (s *reviewStore) InsertEvent(ctx context.Context, e *model.Event) error { return nil }
func (s *reviewStore) ListEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	return nil, nil
}
func (s *reviewStore) UpsertReview(ctx context.Context, r *model.Review) error { return nil }
func (s *reviewStore) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	return nil, nil
}
func (s *reviewStore) ListReviews(ctx context.Context, limit int) ([]*model.Review, error) {
	return s.reviews, s.err
}
func (s *reviewStore) InsertTrackedObject(ctx context.Context, o *model.TrackedObject) error {
	return nil
}
func (s *reviewStore) ListTrackedObjects(ctx context.Context, limit int) ([]*model.TrackedObject, error) {
	return nil, nil
}
func (s *reviewStore) Close() error { return nil }

func TestExportJSONL(t *testing.T) {
	st := &reviewStore{reviews: []*model.Review{
		{ReviewID: "r2", Camera: "back", Status: "waiting"},
		{ReviewID: "r1", Camera: "front", Status: "waiting"},
	}}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), st, &buf); err != nil {
		t.Fatalf("ExportJSONL() error: %v", err)
	}

	scanner := bufio.NewScanner(&buf)

	if !scanner.Scan() {
		t.Fatal("output missing header line")
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil {
		t.Fatalf("decoding header: %v", err)
	}
	if h.Type != "lookout.reviews" || h.Version != "1" || h.ReviewCount != 2 {
		t.Errorf("header = %+v", h)
	}

	var ids []string
	for scanner.Scan() {
		var rec struct {
			Type string        `json:"type"`
			Data *model.Review `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decoding record: %v", err)
		}
		if rec.Type != "review" {
			t.Errorf("record type = %q, want review", rec.Type)
		}
		ids = append(ids, rec.Data.ReviewID)
	}
	if len(ids) != 2 || ids[0] != "r2" || ids[1] != "r1" {
		t.Errorf("review ids = %v, want store order [r2 r1]", ids)
	}
}

func TestExportJSONL_StoreError(t *testing.T) {
	st := &reviewStore{err: errors.New("connection refused")}
	if err := ExportJSONL(context.Background(), st, io.Discard); err == nil {
		t.Fatal("ExportJSONL() = nil, want store error")
	}
}

// captureDestination records every payload it receives.
type captureDestination struct {
	mu     sync.Mutex
	writes [][]byte
	err    error
}

func (d *captureDestination) Write(ctx context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.writes = append(d.writes, append([]byte(nil), data...))
	return nil
}

func (d *captureDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

func TestScheduler_ExportsImmediately(t *testing.T) {
	st := &reviewStore{reviews: []*model.Review{{ReviewID: "r1", Status: "waiting"}}}
	dest := &captureDestination{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sched := NewScheduler(st, []Destination{dest}, time.Hour, logger)
	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for dest.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if dest.count() != 1 {
		t.Fatalf("destination received %d writes, want 1 immediate export", dest.count())
	}

	dest.mu.Lock()
	payload := dest.writes[0]
	dest.mu.Unlock()
	if !bytes.Contains(payload, []byte(`"lookout.reviews"`)) {
		t.Errorf("payload missing header: %s", payload)
	}
}

func TestS3Destination_ObjectKey(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	d := &S3Destination{keyPrefix: "archives", now: func() time.Time { return at }}
	if got, want := d.objectKey(), "archives/reviews-20250601T123000Z.jsonl"; got != want {
		t.Errorf("objectKey() = %q, want %q", got, want)
	}

	d = &S3Destination{now: func() time.Time { return at }}
	if got, want := d.objectKey(), "reviews-20250601T123000Z.jsonl"; got != want {
		t.Errorf("objectKey() = %q, want %q", got, want)
	}
}

func TestScheduler_DestinationFailureIsIsolated(t *testing.T) {
	st := &reviewStore{}
	failing := &captureDestination{err: errors.New("forbidden")}
	healthy := &captureDestination{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sched := NewScheduler(st, []Destination{failing, healthy}, time.Hour, logger)
	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for healthy.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if healthy.count() != 1 {
		t.Fatalf("healthy destination received %d writes, want 1", healthy.count())
	}
}
