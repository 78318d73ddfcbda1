// Package api exposes the agent graph and its stores over a JSON HTTP API.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Graph       GraphRunner   // Required
	Knowledge   Ingester      // Optional: nil disables document endpoints
	Learners    SessionStore  // Optional: nil disables session endpoints
	Pool        *pgxpool.Pool // Optional: nil disables pool stats in /ready
	CORSOrigins []string      // Allowed origins for CORS
	RatePerSec  float64       // Per-IP request rate; 0 uses the default
	RateBurst   int           // Per-IP burst capacity; 0 uses the default
	TrustProxy  bool          // Trust X-Real-IP / X-Forwarded-For for limiter keys
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Graph == nil {
		return nil, errors.New("graph runner is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	qh := &queryHandler{runner: cfg.Graph, logger: logger}
	mux.HandleFunc("POST /api/v1/query", qh.run)

	if cfg.Knowledge != nil {
		dh := &documentsHandler{store: cfg.Knowledge, logger: logger}
		mux.HandleFunc("POST /api/v1/documents", dh.ingest)
		mux.HandleFunc("DELETE /api/v1/documents/{id}", dh.remove)
	}

	if cfg.Learners != nil {
		sh := &sessionsHandler{store: cfg.Learners, logger: logger}
		mux.HandleFunc("GET /api/v1/learners/{id}/sessions", sh.list)
		mux.HandleFunc("POST /api/v1/sessions/{id}/end", sh.end)
	}

	ratePerSec := cfg.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	// Middleware stack, outermost first:
	//   Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
	// RequestID sits before Logging so request_id is available in log
	// attributes; CORS before the limiter so preflight OPTIONS is served.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(newRateLimiter(ratePerSec, burst), cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// A top-level mux keeps health probes out of the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
