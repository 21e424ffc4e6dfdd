package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"wikigen/app/internal/generation"
	"wikigen/app/internal/wiki"
)

const (
	defaultWikiTimeout       = 15 * time.Second
	defaultGenerationTimeout = 3 * time.Minute
	defaultRedirectDelay     = 2 * time.Second
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP server wiring.
type Options struct {
	Wiki              wiki.Client
	Generator         generation.Generator
	Suffixes          generation.Suffixes
	RedirectDelay     time.Duration
	WikiTimeout       time.Duration
	GenerationTimeout time.Duration
	Backend           string
	Provider          string
	// HealthCheck is pinged by /healthz when set.
	HealthCheck Pinger
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api               huma.API
	mux               *stdhttp.ServeMux
	wiki              wiki.Client
	generator         generation.Generator
	suffixes          generation.Suffixes
	redirectDelay     time.Duration
	wikiTimeout       time.Duration
	generationTimeout time.Duration
	backend           string
	provider          string
	healthCheck       Pinger
	logger            *logrus.Logger
	sentry            *sentry.Hub
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Wiki == nil {
		return nil, eris.New("wiki client is required")
	}
	if opts.Generator == nil {
		return nil, eris.New("generator is required")
	}
	if opts.Suffixes.Document == "" || opts.Suffixes.Evaluator == "" {
		return nil, eris.New("document and evaluator suffixes are required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("wikigen", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:               api,
		mux:               mux,
		wiki:              opts.Wiki,
		generator:         opts.Generator,
		suffixes:          opts.Suffixes,
		redirectDelay:     opts.RedirectDelay,
		wikiTimeout:       opts.WikiTimeout,
		generationTimeout: opts.GenerationTimeout,
		backend:           opts.Backend,
		provider:          opts.Provider,
		healthCheck:       opts.HealthCheck,
		logger:            opts.Logger,
		sentry:            opts.SentryHub,
	}

	if srv.wikiTimeout <= 0 {
		srv.wikiTimeout = defaultWikiTimeout
	}
	if srv.generationTimeout <= 0 {
		srv.generationTimeout = defaultGenerationTimeout
	}
	if srv.redirectDelay < 0 {
		srv.redirectDelay = defaultRedirectDelay
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.identityMiddleware(),
		s.securityHeadersMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /favicon.ico", faviconHandler)
	s.mux.HandleFunc("HEAD /favicon.ico", faviconHandler)
	s.mux.Handle("GET /img/", imageHandler())

	s.registerDashboardRoutes()
	s.registerProcessRoute()
	s.registerWikiRoutes()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
