package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/alderglen/lookout/internal/bus"
	"github.com/alderglen/lookout/internal/model"
	"github.com/alderglen/lookout/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/messages", s.handleMessages)
	mux.HandleFunc("DELETE /v1/bus", s.handleBusDisconnect)
	mux.HandleFunc("POST /v1/bus/test", s.handleBusTest)
	mux.HandleFunc("GET /v1/settings", s.handleSettings)
	mux.HandleFunc("GET /v1/reviews", s.handleListReviews)
	mux.HandleFunc("GET /v1/reviews/{review_id}", s.handleGetReview)
	mux.HandleFunc("GET /v1/events", s.handleListEvents)
	mux.HandleFunc("GET /v1/tracked-objects", s.handleListTrackedObjects)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"bus_connected": s.bus.Connected(),
	})
}

// handleMessages handles GET /v1/messages. It starts the bus subscription
// on first use and returns the buffered recent traffic, either one kind
// (?type=) or all three. Reads never wait on the storage sink.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if !s.bus.Connected() {
		if err := s.ConnectBus(); err != nil {
			s.logger.Error("bus connect failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, "bus not connected")
			return
		}
	}

	buffer := s.pipe.Buffer()
	switch kind := r.URL.Query().Get("type"); kind {
	case "":
		all := buffer.All()
		writeJSON(w, http.StatusOK, map[string]any{
			"events":         all[model.KindEvent],
			"reviews":        all[model.KindReview],
			"trackedObjects": all[model.KindTrackedObject],
		})
	case string(model.KindEvent), string(model.KindReview), string(model.KindTrackedObject):
		writeJSON(w, http.StatusOK, buffer.Get(model.Kind(kind)))
	default:
		writeError(w, http.StatusBadRequest, "unknown type "+strconv.Quote(kind))
	}
}

// handleBusDisconnect handles DELETE /v1/bus.
func (s *Server) handleBusDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.bus.Disconnect()
	writeJSON(w, http.StatusOK, map[string]string{"message": "bus disconnected"})
}

// busTestRequest optionally overrides the configured broker settings for
// one diagnostic cycle.
type busTestRequest struct {
	BusHost string `json:"bus_host"`
	BusPort int    `json:"bus_port"`
	BusUser string `json:"bus_user"`
	BusPass string `json:"bus_pass"`
}

// handleBusTest handles POST /v1/bus/test: a synchronous
// connect-subscribe-disconnect cycle that validates credentials without
// persisting anything.
func (s *Server) handleBusTest(w http.ResponseWriter, r *http.Request) {
	var req busTestRequest
	if r.Body != nil {
		// An empty body means "use the configured settings".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	host := s.cfg.BusHost
	if req.BusHost != "" {
		host = req.BusHost
	}
	port := s.cfg.BusPort
	if req.BusPort != 0 {
		port = req.BusPort
	}
	user := s.cfg.BusUser
	if req.BusUser != "" {
		user = req.BusUser
	}
	pass := s.cfg.BusPass
	if req.BusPass != "" {
		pass = req.BusPass
	}

	logs, err := bus.Diagnose("nats://"+host+":"+strconv.Itoa(port), user, pass)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   err.Error(),
			"logs":    logs,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"logs":    logs,
	})
}

// handleSettings handles GET /v1/settings, reporting the effective
// configuration with secrets masked.
func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"bus_host":     s.cfg.BusHost,
		"bus_port":     s.cfg.BusPort,
		"bus_user":     s.cfg.BusUser,
		"bus_pass":     maskSecret(s.cfg.BusPass),
		"database_url": redactURL(s.cfg.DatabaseURL),
		"display_tz":   s.cfg.DisplayTimeZone,
		"buffer_max":   s.cfg.BufferMax,
	})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.store.ListReviews(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("list reviews failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("review_id")
	review, err := s.store.GetReview(r.Context(), reviewID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	if err != nil {
		s.logger.Error("get review failed", "review_id", reviewID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to get review")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("list events failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleListTrackedObjects(w http.ResponseWriter, r *http.Request) {
	objects, err := s.store.ListTrackedObjects(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("list tracked objects failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list tracked objects")
		return
	}
	writeJSON(w, http.StatusOK, objects)
}

// queryLimit parses the limit query parameter, defaulting to 100.
func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
