// Package server implements the Archflow HTTP API.
//
// The API exposes the layout pipeline over HTTP so editors and other
// frontends can offload placement and routing without linking the engine:
//
//	POST /v1/layout        run the full pipeline on a diagram
//	POST /v1/route         re-route edges of an already positioned diagram
//	GET  /v1/diagrams      list stored diagrams, newest first
//	PUT  /v1/diagrams/{id} store a diagram under an ID
//	GET  /v1/diagrams/{id} load a stored diagram
//	DELETE /v1/diagrams/{id}
//	GET  /healthz          liveness probe
//
// All request and response bodies are JSON. Errors are returned as
//
//	{"error": {"code": "INVALID_INPUT", "message": "..."}}
//
// with the HTTP status derived from the error code.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/archflowhq/archflow/pkg/pipeline"
	"github.com/archflowhq/archflow/pkg/store"
)

// =============================================================================
// Server
// =============================================================================

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Runner executes layout requests. Required.
	Runner *pipeline.Runner

	// Store persists diagrams. Required for the /v1/diagrams routes.
	Store store.Store

	// Logger receives request logs. Defaults to log.Default().
	Logger *log.Logger

	// MaxBodyBytes caps request body size. Defaults to 8 MiB.
	MaxBodyBytes int64
}

// Server is the Archflow HTTP API server.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	maxBody int64
	http    *http.Server
}

const defaultMaxBodyBytes = 8 << 20

// New creates a server with its routes wired up.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		runner:  opts.Runner,
		store:   opts.Store,
		logger:  opts.Logger,
		maxBody: opts.MaxBodyBytes,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router. Exposed so tests can drive the handlers
// through httptest without binding a port.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/route", s.handleRoute)

		r.Route("/diagrams", func(r chi.Router) {
			r.Get("/", s.handleListDiagrams)
			r.Put("/{id}", s.handlePutDiagram)
			r.Get("/{id}", s.handleGetDiagram)
			r.Delete("/{id}", s.handleDeleteDiagram)
		})
	})

	return r
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.store != nil {
		if cerr := s.store.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}
