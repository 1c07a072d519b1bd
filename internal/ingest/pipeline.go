package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alderglen/lookout/internal/bus"
	"github.com/alderglen/lookout/internal/metrics"
	"github.com/alderglen/lookout/internal/model"
)

// writeQueueSize bounds the number of persistence tasks waiting on the
// supervising writer before dispatch starts dropping writes.
const writeQueueSize = 256

type task struct {
	kind  model.Kind
	write func(ctx context.Context) error
}

// Pipeline is the bus dispatch path: buffer the raw message, normalize it,
// and queue the canonical record for persistence. Persistence runs on a
// single supervising goroutine, so dispatch never blocks on the store and
// writes for the same key are serialized.
type Pipeline struct {
	normalizer *Normalizer
	sink       *Sink
	buffer     *Buffer
	metrics    *metrics.Metrics
	logger     *slog.Logger

	tasks  chan task
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPipeline(n *Normalizer, sink *Sink, buffer *Buffer, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer: n,
		sink:       sink,
		buffer:     buffer,
		metrics:    m,
		logger:     logger,
		tasks:      make(chan task, writeQueueSize),
	}
}

// Start launches the supervising writer.
func (p *Pipeline) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

// Stop cancels the writer and waits for the in-flight write to finish.
// Queued tasks are abandoned.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pipeline) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.tasks:
			result := metrics.ResultOK
			if err := t.write(ctx); err != nil {
				// Already logged by the sink; the write is abandoned with
				// no retry.
				result = classify(err)
			}
			p.metrics.Writes.WithLabelValues(string(t.kind), result).Inc()
		}
	}
}

// Handle consumes one raw bus delivery. It satisfies bus.Handler.
func (p *Pipeline) Handle(topic string, payload []byte) {
	kind, ok := bus.KindForTopic(topic)
	if !ok {
		// Not one of the three fixed topics.
		return
	}
	p.metrics.BusMessages.WithLabelValues(topic).Inc()

	env, err := model.ParseEnvelope(payload)
	if err != nil {
		// A malformed message is dropped; it never terminates dispatch.
		p.metrics.ParseFailures.WithLabelValues(topic).Inc()
		p.logger.Warn("discarding unparseable payload", "topic", topic, "err", err)
		return
	}

	size := p.buffer.Add(kind, topic, payload)
	p.metrics.BufferEntries.WithLabelValues(string(kind)).Set(float64(size))

	var write func(ctx context.Context) error
	switch kind {
	case model.KindEvent:
		e, err := p.normalizer.Event(env)
		if err != nil {
			p.reject(kind, topic, err)
			return
		}
		write = func(ctx context.Context) error { return p.sink.WriteEvent(ctx, e) }
	case model.KindReview:
		r, err := p.normalizer.Review(env)
		if err != nil {
			p.reject(kind, topic, err)
			return
		}
		write = func(ctx context.Context) error { return p.sink.WriteReview(ctx, r) }
	case model.KindTrackedObject:
		o, err := p.normalizer.TrackedObject(env)
		if err != nil {
			p.reject(kind, topic, err)
			return
		}
		write = func(ctx context.Context) error { return p.sink.WriteTrackedObject(ctx, o) }
	}

	select {
	case p.tasks <- task{kind: kind, write: write}:
	default:
		// Queue full: abandon this write rather than block bus dispatch.
		p.metrics.Writes.WithLabelValues(string(kind), metrics.ResultDropped).Inc()
		p.logger.Warn("write queue full, dropping record", "kind", kind, "topic", topic)
	}
}

// Buffer exposes the recent-message buffer for polling readers.
func (p *Pipeline) Buffer() *Buffer {
	return p.buffer
}

func (p *Pipeline) reject(kind model.Kind, topic string, err error) {
	p.metrics.Rejections.WithLabelValues(string(kind)).Inc()
	p.logger.Warn("record rejected", "kind", kind, "topic", topic, "err", err)
}
