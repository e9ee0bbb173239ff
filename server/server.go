// Package server exposes agent validation, testing, execution and
// completions over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leofalp/agentgraph/cache"
	"github.com/leofalp/agentgraph/metrics"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/runtime"
	"github.com/leofalp/agentgraph/testengine"
)

const (
	maxBodyBytes    = 5 << 20
	shutdownTimeout = 10 * time.Second

	// UserHeader identifies the caller for per-user rate limiting.
	UserHeader = "X-User-ID"
)

// Server wires the HTTP surface to the engine, orchestrator and executor.
type Server struct {
	engine       *testengine.Engine
	orchestrator *orchestrator.Orchestrator
	executor     *runtime.Executor
	metrics      *metrics.Metrics
	cache        *cache.ResponseCache
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithCache enables GET /v1/cache/stats.
func WithCache(c *cache.ResponseCache) Option {
	return func(s *Server) { s.cache = c }
}

// WithLogger sets the request logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New returns a Server backed by engine, orch and executor. Call Handler to
// mount it or ListenAndServe to run it.
func New(engine *testengine.Engine, orch *orchestrator.Orchestrator, executor *runtime.Executor, opts ...Option) *Server {
	s := &Server{
		engine:       engine,
		orchestrator: orch,
		executor:     executor,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/agents", func(r chi.Router) {
			r.Post("/validate", s.validateAgent)
			r.Post("/strategy", s.agentStrategy)
			r.Post("/simulate", s.simulateAgent)
			r.Post("/test", s.testAgent)
			r.Post("/run", s.runAgent)
		})
		r.Get("/tests", s.runningTests)
		r.Get("/tests/{id}", s.testStatus)
		r.Post("/completions", s.completion)
		r.Get("/providers", s.providers)
		if s.cache != nil {
			r.Get("/cache/stats", s.cacheStats)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound("rota"))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": s.orchestrator.AvailableProviders(),
	})
}
