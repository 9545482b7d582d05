// Package health serves upstream health and Prometheus metrics over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/dexagg/internal/infra/httpapi"
)

// StatsSource reports transport statistics.
type StatsSource interface {
	Stats() httpapi.MonitorStats
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	source StatsSource
	server *http.Server
}

// NewServer creates a new health server.
func NewServer(source StatsSource, port int) *Server {
	s := &Server{
		source: source,
		server: &http.Server{
			Addr: fmt.Sprintf(":%d", port),
		},
	}
	s.server.Handler = s.Handler()
	return s
}

// Handler returns the routes served by the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.source.Stats()

	response := map[string]string{"status": stats.StatusName}
	w.Header().Set("Content-Type", "application/json")

	// Throttling is transient; a blocked key needs an operator.
	if stats.Status == httpapi.StatusBlocked {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.source.Stats())
}
