// Package metrics exposes Prometheus instrumentation for the ingest
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Write result labels.
const (
	ResultOK          = "ok"
	ResultRejected    = "rejected"
	ResultUnreachable = "unreachable"
	ResultDropped     = "dropped"
)

// Metrics holds the pipeline's instruments on a private registry so tests
// can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// BusMessages counts deliveries per topic, before parsing.
	BusMessages *prometheus.CounterVec
	// ParseFailures counts payloads dropped as malformed, per topic.
	ParseFailures *prometheus.CounterVec
	// Rejections counts records dropped by validation, per kind.
	Rejections *prometheus.CounterVec
	// Writes counts persistence attempts per kind and result.
	Writes *prometheus.CounterVec
	// BufferEntries tracks the per-kind recent-message buffer size.
	BufferEntries *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BusMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_bus_messages_total",
			Help: "Messages delivered by the bus, by topic.",
		}, []string{"topic"}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_parse_failures_total",
			Help: "Payloads discarded as unparseable, by topic.",
		}, []string{"topic"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_rejections_total",
			Help: "Records rejected by validation before any write, by kind.",
		}, []string{"kind"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_store_writes_total",
			Help: "Persistence attempts, by record kind and result.",
		}, []string{"kind", "result"}),
		BufferEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lookout_buffer_entries",
			Help: "Entries currently held in the recent-message buffer, by kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BusMessages,
		m.ParseFailures,
		m.Rejections,
		m.Writes,
		m.BufferEntries,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
