package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"submission-preprocessor/internal/pipeline"
	"submission-preprocessor/pkg/logger"
)

// Server exposes the operational endpoints: health and prometheus metrics.
// Producers never talk to this service over HTTP; submissions arrive through
// the queue.
type Server struct {
	Orchestrator *pipeline.Orchestrator
	registry     *prometheus.Registry
}

func NewServer(o *pipeline.Orchestrator, reg *prometheus.Registry) *Server {
	return &Server{Orchestrator: o, registry: reg}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/health", RequestIDMiddleware(http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", RequestIDMiddleware(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rid := GetRequestID(r.Context())
	log := logger.Get().With("request_id", rid)

	healthy := s.Orchestrator.Context().Err() == nil
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"healthy":        healthy,
		"uptime_seconds": int(time.Since(s.Orchestrator.StartTime()).Seconds()),
	}
	_ = json.NewEncoder(w).Encode(resp)

	log.Debugw("health check", "path", r.URL.Path, "remote_addr", r.RemoteAddr, "healthy", healthy)
}
