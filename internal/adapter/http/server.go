package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AllReady combines checkers; the first failure wins.
type AllReady []sharedobs.ReadinessChecker

var _ sharedobs.ReadinessChecker = AllReady(nil)

func (a AllReady) CheckReadiness(ctx context.Context) error {
	for _, c := range a {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Server exposes the store API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the store routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, stores StoreCatalog, backend Backend, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 45 * time.Second, // outlasts the backend request timeout
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	api := &storeAPI{stores: stores, backend: backend, logger: logger}
	mux.HandleFunc("GET /stores", api.handleList)
	mux.HandleFunc("GET /stores/stats", api.handleStats)
	mux.HandleFunc("GET /stores/{id}", api.handleGet)
	mux.HandleFunc("GET /stores/{id}/insights", api.handleInsights)
	mux.HandleFunc("POST /stores/{id}/feedback", api.handleFeedback)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error        string `json:"error"`
	Kind         string `json:"kind,omitempty"`
	UpstreamCode int    `json:"upstream_status,omitempty"`
	Attempts     any    `json:"attempts,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, errorBody{Error: err.Error()})
}

var errNotFound = errors.New("store not found")
