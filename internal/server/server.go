// Package server exposes the version check over HTTP.
//
// Routes:
//
//	POST /v1/check   body: package.json; query: write, only, keep_going, refresh, concurrency
//	GET  /healthz    liveness probe
//	GET  /metrics    Prometheus metrics
//
// A check response carries a request id, one entry per checked section and,
// with write=true, the patched manifest. Section failures are reported inside
// the response; only documents that cannot be read as a manifest are
// rejected (422).
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/bumper/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes caps the size of an uploaded manifest.
	DefaultMaxBodyBytes = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	MaxBodyBytes int64
	// Registry receives the server's collectors. A fresh registry with Go
	// and process collectors is created when nil.
	Registry *prometheus.Registry
}

// Server is the HTTP front end for a pipeline.Runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics *Metrics
	maxBody int64
	router  chi.Router
}

// New builds the router. The metrics are created but not installed as
// global hooks; call s.Metrics().Install() for that.
func New(runner *pipeline.Runner, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		runner:  runner,
		logger:  logger,
		metrics: NewMetrics(reg),
		maxBody: maxBody,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.handleCheck)
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
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
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// instrument logs each request and records it in the HTTP metrics, keyed by
// route pattern so ids in paths do not explode label cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.metrics.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed.Round(time.Millisecond))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
