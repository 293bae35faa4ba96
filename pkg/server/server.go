// Package server exposes the render pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz      liveness and build information
//	GET  /v1/tables    built-in symbol tables
//	GET  /v1/stats     in-memory counters (when a Recorder is attached)
//	POST /v1/render    transform and render an uploaded image
//
// The render endpoint takes the image as the raw request body or as the
// "image" field of a multipart form. Options are query parameters:
//
//	mode         symbolic | flatten
//	block_size   block edge length in pixels
//	glyph_size   rendered cell pitch in pixels
//	table        built-in table name (paths are rejected)
//	format       a single output format
//	glow         true | false
//	background   #rrggbb
//	max_width    downscale wider inputs first
//
// Every response carries an X-Request-ID header. Render responses also carry
// X-Cache (hit or miss) and X-Grid-Size (cols x rows). Errors are JSON
// objects of the form {"code": "...", "message": "..."}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/blockglyph/pkg/observability"
	"github.com/matzehuels/blockglyph/pkg/pipeline"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultMaxBodyBytes limits uploaded image size.
	DefaultMaxBodyBytes = 32 << 20

	// DefaultTimeout bounds the handling time of a single request.
	DefaultTimeout = 60 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Server serves the render API.
type Server struct {
	runner       *pipeline.Runner
	logger       *log.Logger
	recorder     *observability.Recorder
	defaults     pipeline.Options
	maxBodyBytes int64
	timeout      time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder exposes rec on /v1/stats.
func WithRecorder(rec *observability.Recorder) Option {
	return func(s *Server) { s.recorder = rec }
}

// WithDefaults sets the options used for parameters a request omits.
func WithDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// WithMaxBodyBytes overrides the upload size limit.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a server that renders through runner.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:       runner,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with all routes and middleware mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tables", s.handleTables)
		r.Get("/stats", s.handleStats)
		r.Post("/render", s.handleRender)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed(r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
