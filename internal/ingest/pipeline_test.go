package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alderglen/lookout/internal/bus"
	"github.com/alderglen/lookout/internal/metrics"
	"github.com/alderglen/lookout/internal/model"
)

// mockStore records writes and signals each one on a channel so tests can
// wait out the asynchronous writer.
type mockStore struct {
	mu             sync.Mutex
	events         []*model.Event
	reviews        map[string]*model.Review
	trackedObjects []*model.TrackedObject
	failWith       error
	wrote          chan model.Kind
}

func newMockStore() *mockStore {
	return &mockStore{
		reviews: make(map[string]*model.Review),
		wrote:   make(chan model.Kind, 64),
	}
}

func (m *mockStore) InsertEvent(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.wrote <- model.KindEvent }()
	if m.failWith != nil {
		return m.failWith
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockStore) ListEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Event(nil), m.events...), nil
}

func (m *mockStore) UpsertReview(ctx context.Context, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.wrote <- model.KindReview }()
	if m.failWith != nil {
		return m.failWith
	}
	m.reviews[r.ReviewID] = r
	return nil
}

func (m *mockStore) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reviews[reviewID]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func (m *mockStore) ListReviews(ctx context.Context, limit int) ([]*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Review, 0, len(m.reviews))
	for _, r := range m.reviews {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) InsertTrackedObject(ctx context.Context, o *model.TrackedObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.wrote <- model.KindTrackedObject }()
	if m.failWith != nil {
		return m.failWith
	}
	m.trackedObjects = append(m.trackedObjects, o)
	return nil
}

func (m *mockStore) ListTrackedObjects(ctx context.Context, limit int) ([]*model.TrackedObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.TrackedObject(nil), m.trackedObjects...), nil
}

func (m *mockStore) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startTestPipeline(t *testing.T, st *mockStore) (*Pipeline, *metrics.Metrics) {
	t.Helper()
	logger := testLogger()
	m := metrics.New()
	p := NewPipeline(
		testNormalizer(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		NewSink(st, logger),
		NewBuffer(24*time.Hour, 100),
		m,
		logger,
	)
	p.Start()
	t.Cleanup(p.Stop)
	return p, m
}

func waitWrites(t *testing.T, st *mockStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-st.wrote:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for write %d of %d", i+1, n)
		}
	}
}

func waitCounter(t *testing.T, c prometheus.Collector, want float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(c) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("counter = %v, want %v", testutil.ToFloat64(c), want)
}

func TestPipeline_EventDispatch(t *testing.T) {
	st := newMockStore()
	p, m := startTestPipeline(t, st)

	p.Handle(bus.TopicEvents, []byte(`{"type":"new","after":{"id":"e1","camera":"front"}}`))
	p.Handle(bus.TopicEvents, []byte(`{"type":"end","after":{"id":"e1","camera":"front"}}`))
	waitWrites(t, st, 2)

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.events) != 2 {
		t.Fatalf("store holds %d events, want 2 (no dedup)", len(st.events))
	}
	if st.events[0].EventType != "new" || st.events[1].EventType != "end" {
		t.Errorf("event types = %q/%q, want new/end", st.events[0].EventType, st.events[1].EventType)
	}
	if got := testutil.ToFloat64(m.BusMessages.WithLabelValues(bus.TopicEvents)); got != 2 {
		t.Errorf("bus message count = %v, want 2", got)
	}
}

func TestPipeline_ReviewUpsertByKey(t *testing.T) {
	st := newMockStore()
	p, _ := startTestPipeline(t, st)

	p.Handle(bus.TopicReviews, []byte(`{"type":"new","after":{"id":"r1","camera":"front","severity":"detection"}}`))
	p.Handle(bus.TopicReviews, []byte(`{"type":"update","after":{"id":"r1","camera":"front","severity":"alert"}}`))
	waitWrites(t, st, 2)

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.reviews) != 1 {
		t.Fatalf("store holds %d reviews, want 1 (keyed by review_id)", len(st.reviews))
	}
	r := st.reviews["r1"]
	if r == nil || r.ReviewType != "update" || !r.IsAlert {
		t.Errorf("review = %+v, want latest delivery with alert flag", r)
	}
}

func TestPipeline_TrackedObjectDispatch(t *testing.T) {
	st := newMockStore()
	p, _ := startTestPipeline(t, st)

	p.Handle(bus.TopicTrackedObjects, []byte(`{"type":"update","after":{"id":"t1","camera":"garage"}}`))
	waitWrites(t, st, 1)

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.trackedObjects) != 1 || st.trackedObjects[0].TrackedObjectID != "t1" {
		t.Fatalf("tracked objects = %+v, want single t1", st.trackedObjects)
	}
}

func TestPipeline_MalformedPayloadDropped(t *testing.T) {
	st := newMockStore()
	p, m := startTestPipeline(t, st)

	p.Handle(bus.TopicEvents, []byte(`{not json`))

	waitCounter(t, m.ParseFailures.WithLabelValues(bus.TopicEvents), 1)
	if got := p.Buffer().Get(model.KindEvent); len(got) != 0 {
		t.Errorf("buffer holds %d entries, want 0 for unparseable payload", len(got))
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.events) != 0 {
		t.Errorf("store holds %d events, want 0", len(st.events))
	}
}

func TestPipeline_UnknownTopicIgnored(t *testing.T) {
	st := newMockStore()
	p, m := startTestPipeline(t, st)

	p.Handle("frigate.stats", []byte(`{"type":"new","after":{"id":"e1","camera":"front"}}`))

	if got := testutil.ToFloat64(m.BusMessages.WithLabelValues("frigate.stats")); got != 0 {
		t.Errorf("bus message count = %v, want 0", got)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.events) != 0 {
		t.Errorf("store holds %d events, want 0", len(st.events))
	}
}

func TestPipeline_RejectedRecordStillBuffered(t *testing.T) {
	st := newMockStore()
	p, m := startTestPipeline(t, st)

	// Parseable but unusable: no identifier anywhere.
	p.Handle(bus.TopicReviews, []byte(`{"type":"new","after":{"camera":"front"}}`))

	waitCounter(t, m.Rejections.WithLabelValues(string(model.KindReview)), 1)
	if got := p.Buffer().Get(model.KindReview); len(got) != 1 {
		t.Errorf("buffer holds %d entries, want 1 (buffered before validation)", len(got))
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.reviews) != 0 {
		t.Errorf("store holds %d reviews, want 0", len(st.reviews))
	}
}

func TestPipeline_StoreFailureDoesNotStopDispatch(t *testing.T) {
	st := newMockStore()
	st.failWith = errors.New("connection refused")
	p, m := startTestPipeline(t, st)

	p.Handle(bus.TopicEvents, []byte(`{"type":"new","after":{"id":"e1","camera":"front"}}`))
	p.Handle(bus.TopicEvents, []byte(`{"type":"new","after":{"id":"e2","camera":"front"}}`))
	waitWrites(t, st, 2)

	waitCounter(t, m.Writes.WithLabelValues(string(model.KindEvent), metrics.ResultUnreachable), 2)
	if got := p.Buffer().Get(model.KindEvent); len(got) != 2 {
		t.Errorf("buffer holds %d entries, want 2 despite store failure", len(got))
	}
}
