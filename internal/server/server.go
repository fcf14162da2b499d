// Package server exposes the layout pipeline over HTTP.
//
// Routes:
//
//	POST /v1/layout   lay out a whole graph, returns the positioned graph
//	POST /v1/ego      run an ego sweep, returns one graph per center
//	GET  /healthz     liveness probe
//	GET  /metrics     Prometheus metrics, when a handler is configured
//
// Requests and responses are JSON. Graphs use the same document format as
// the json file export.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Traubert/nlp-tools/pkg/observability"
	"github.com/Traubert/nlp-tools/pkg/pipeline"
)

// Defaults for Config.
const (
	DefaultMaxBodyBytes = 32 << 20
	DefaultMaxRounds    = 5000
	shutdownTimeout     = 10 * time.Second
)

// Config limits what a single request may ask for.
type Config struct {
	MaxBodyBytes int64 // request body limit
	MaxRounds    int   // upper bound for the rounds option
	Workers      int   // ego sweep workers per request
}

// Server serves layout requests through a shared pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	cfg     Config
	logger  *log.Logger
	metrics http.Handler
}

// New creates a server. metrics may be nil to leave /metrics unrouted.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger, metrics http.Handler) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, cfg: cfg, logger: logger, metrics: metrics}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.layout)
		r.Post("/ego", s.ego)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe logs every request and feeds the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
