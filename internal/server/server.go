package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/qubitworks/simgate/internal/ratelimit"
	"github.com/qubitworks/simgate/internal/storage"
	"github.com/qubitworks/simgate/internal/summary"
	"github.com/qubitworks/simgate/internal/upstream"
)

// Server is the simgate HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Limiter, UIFS.
type ServerConfig struct {
	// Required dependencies.
	Store     storage.Store
	Summary   *summary.Provider
	Completer upstream.Completer
	Logger    *slog.Logger

	// Optional dependencies (nil = disabled).
	Limiter     ratelimit.Limiter
	UIFS        fs.FS
	OpenAPISpec []byte

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Store:               cfg.Store,
		Summary:             cfg.Summary,
		Completer:           cfg.Completer,
		Logger:              cfg.Logger,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OpenAPISpec:         cfg.OpenAPISpec,
	})

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NoopLimiter{}
	}
	askRL := ratelimit.Middleware(limiter, ratelimit.IPKeyFunc, cfg.Logger)

	mux := http.NewServeMux()

	// The question path is the only rate-limited route; pagination and
	// health stay reachable when a client is throttled.
	mux.Handle("POST /api/ask", askRL(http.HandlerFunc(h.HandleAsk)))

	mux.HandleFunc("GET /api/quantum-data", h.HandleQuantumData)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /openapi.yaml", h.HandleOpenAPISpec)

	// Unmatched /api/ paths get the JSON 404, not the dashboard.
	mux.HandleFunc("/api/", handleNotFound)

	// Dashboard at the root. Registered last so all API routes take
	// priority via the mux's longest-match rule.
	mux.Handle("/", newUIHandler(cfg.UIFS))

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
