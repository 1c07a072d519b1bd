package ingest

import (
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/alderglen/lookout/internal/model"
)

// Buffer holds a bounded, most-recent-first window of raw bus traffic per
// record kind, independent of the storage sink. Entries age out of reads
// after the retention horizon; a hard per-kind cap bounds growth between
// reads.
type Buffer struct {
	retention time.Duration
	max       int
	now       func() time.Time

	mu      sync.Mutex
	entries map[model.Kind][]*model.BufferedMessage
}

func NewBuffer(retention time.Duration, max int) *Buffer {
	return &Buffer{
		retention: retention,
		max:       max,
		now:       time.Now,
		entries:   make(map[model.Kind][]*model.BufferedMessage),
	}
}

// Add prepends a raw message to the kind's window and returns the window's
// new length. The oldest entry is dropped when the cap is exceeded.
func (b *Buffer) Add(kind model.Kind, topic string, payload []byte) int {
	msg := &model.BufferedMessage{
		Topic:      topic,
		ReceivedAt: b.now(),
		Payload:    append(json.RawMessage(nil), payload...),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := append([]*model.BufferedMessage{msg}, b.entries[kind]...)
	if b.max > 0 && len(list) > b.max {
		list = list[:b.max]
	}
	b.entries[kind] = list
	return len(list)
}

// Get returns the kind's window with entries older than the retention
// horizon evicted. Eviction mutates the stored list, so it happens lazily
// on read rather than on a timer.
func (b *Buffer) Get(kind model.Kind) []*model.BufferedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evictLocked(kind)
}

// All returns every kind's window, evicting stale entries from each.
func (b *Buffer) All() map[model.Kind][]*model.BufferedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[model.Kind][]*model.BufferedMessage, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		out[kind] = b.evictLocked(kind)
	}
	return out
}

func (b *Buffer) evictLocked(kind model.Kind) []*model.BufferedMessage {
	horizon := b.now().Add(-b.retention)

	list := b.entries[kind]
	kept := list[:0:0]
	for _, msg := range list {
		if msg.ReceivedAt.After(horizon) || msg.ReceivedAt.Equal(horizon) {
			kept = append(kept, msg)
		}
	}
	b.entries[kind] = kept

	out := make([]*model.BufferedMessage, len(kept))
	copy(out, kept)
	return out
}
