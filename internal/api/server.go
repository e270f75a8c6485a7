// Package api exposes the propagation and pass-analysis engine over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/auth"
	"github.com/ReddishWater101/orbitalprop/internal/batch"
	"github.com/ReddishWater101/orbitalprop/internal/health"
	"github.com/ReddishWater101/orbitalprop/internal/metrics"
	"github.com/ReddishWater101/orbitalprop/internal/store"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer   *http.Server
	logger       *slog.Logger
	store        *store.Store
	orchestrator *batch.Orchestrator
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, rlCfg RateLimitConfig,
	st *store.Store, orch *batch.Orchestrator) *Server {

	s := &Server{
		logger:       logger,
		store:        st,
		orchestrator: orch,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/v1/propagate", s.handlePropagate)
	mux.HandleFunc("POST /api/v1/passes", s.handlePasses)
	mux.HandleFunc("POST /api/v1/propagate/batch", s.handleBatch)

	mux.HandleFunc("GET /api/v1/satellites", s.handleSatelliteList)
	mux.HandleFunc("POST /api/v1/satellites", s.handleSatelliteCreate)
	mux.HandleFunc("GET /api/v1/satellites/{id}", s.handleSatelliteGet)

	// Build middleware chain: metrics -> logging -> rate limit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = rateLimitMiddleware(rlCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
