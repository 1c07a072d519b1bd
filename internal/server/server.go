// Package server exposes the polling read API over HTTP.
package server

import (
	"log/slog"

	"github.com/alderglen/lookout/internal/bus"
	"github.com/alderglen/lookout/internal/config"
	"github.com/alderglen/lookout/internal/ingest"
	"github.com/alderglen/lookout/internal/metrics"
	"github.com/alderglen/lookout/internal/store"
)

// Server holds the injected collaborators for the HTTP surface: the single
// bus subscriber, the ingest pipeline it dispatches into, and the store.
type Server struct {
	cfg     *config.Config
	store   store.Store
	bus     bus.Bus
	pipe    *ingest.Pipeline
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(cfg *config.Config, st store.Store, b bus.Bus, pipe *ingest.Pipeline, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		store:   st,
		bus:     b,
		pipe:    pipe,
		metrics: m,
		logger:  logger,
	}
}

// ConnectBus establishes the bus subscription feeding the pipeline.
// Idempotent; safe to call from both startup and request handlers.
func (s *Server) ConnectBus() error {
	return s.bus.Connect(s.pipe.Handle)
}
