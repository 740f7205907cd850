// Package server exposes the conversion pipeline over HTTP.
//
// Routes:
//
//	POST /convert     form, multipart or JSON body with latexInput,
//	                  outputFormat and outputScale; always answers 200 with
//	                  {"imageURL": "..."} or {"error": "..."}
//	GET  /output/*    the produced images, no directory listing
//	GET  /healthz     liveness plus queue counters
//	GET  /            the single-page UI
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/latex2image/pkg/latex"
	"github.com/matzehuels/latex2image/pkg/pipeline"
	"github.com/matzehuels/latex2image/pkg/queue"
)

// Converter runs one conversion. *pipeline.Runner implements it.
type Converter interface {
	Convert(ctx context.Context, raw latex.RawRequest) (*pipeline.Result, error)
}

// Options configures the server.
type Options struct {
	OutputDir     string
	PublicPrefix  string
	MaxBodyBytes  int64
	ReadTimeout   time.Duration
	ShutdownGrace time.Duration

	// Gate is reported on /healthz. Optional.
	Gate *queue.Gate
}

// Server serves the HTTP API.
type Server struct {
	conv   Converter
	opts   Options
	logger *log.Logger
}

// New returns a Server. Zero option values fall back to defaults.
func New(conv Converter, opts Options, logger *log.Logger) *Server {
	if opts.OutputDir == "" {
		opts.OutputDir = pipeline.DefaultOutputDir
	}
	if opts.PublicPrefix == "" {
		opts.PublicPrefix = pipeline.DefaultPublicPrefix
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{conv: conv, opts: opts, logger: logger}
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(instrument)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/convert", s.handleConvert)
	r.Handle("/"+s.opts.PublicPrefix+"/*", s.outputHandler())
	r.Handle("/*", staticHandler())

	return r
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, letting in-flight conversions finish within the grace period.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down", "grace", s.opts.ShutdownGrace)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("graceful shutdown failed", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("close: %w", err)
			}
		}
		return nil
	})
	return g.Wait()
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
