// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/health"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/ratelimit"
)

// Server is the sssd HTTP server.
type Server struct {
	server      *http.Server
	handlers    *HandlerContext
	addr        string
	tlsConfig   *tls.Config
	limiter     *ratelimit.Limiter
	metricsPath string
	maxBody     int64
	logger      logger.Logger
}

// Config holds the REST server configuration.
type Config struct {
	// Addr is the host:port to listen on (default: 127.0.0.1:8200)
	Addr string

	// Service performs split and combine operations
	Service *service.SharingService

	// Health serves /health. Optional.
	Health *health.Checker

	// Version is reported by the health endpoint
	Version string

	// TLSConfig enables HTTPS when set
	TLSConfig *tls.Config

	// RateLimiter limits API requests per client. Optional.
	RateLimiter *ratelimit.Limiter

	// MetricsPath serves Prometheus metrics when non-empty
	MetricsPath string

	// MaxBodyBytes caps API request bodies. Zero disables the cap.
	MaxBodyBytes int64

	Logger logger.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Service == nil {
		return nil, ErrServiceRequired
	}

	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8200"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewSlogAdapter(&logger.SlogConfig{Level: logger.LevelInfo})
	}

	s := &Server{
		handlers:    NewHandlerContext(cfg.Service, cfg.Health, cfg.Version),
		addr:        cfg.Addr,
		tlsConfig:   cfg.TLSConfig,
		limiter:     cfg.RateLimiter,
		metricsPath: cfg.MetricsPath,
		maxBody:     cfg.MaxBodyBytes,
		logger:      log.With(logger.String("component", "rest")),
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.setupRouter(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		TLSConfig:         cfg.TLSConfig,
	}
	return s, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware())
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", s.handlers.HealthHandler)
	r.Head("/health", s.handlers.HealthHandler)
	r.Get("/health/live", s.handlers.LivenessHandler)
	r.Get("/health/ready", s.handlers.ReadinessHandler)

	if s.metricsPath != "" {
		r.Handle(s.metricsPath, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil && s.limiter.IsEnabled() {
			r.Use(ratelimit.Middleware(s.limiter))
		}
		r.Use(BodyLimitMiddleware(s.maxBody))

		r.Post("/split", s.handlers.SplitHandler)
		r.Post("/combine", s.handlers.CombineHandler)

		r.Post("/text/split", s.handlers.TextSplitHandler)
		r.Post("/text/combine", s.handlers.TextCombineHandler)

		r.Get("/sessions", s.handlers.ListSessionsHandler)
		r.Get("/sessions/{id}", s.handlers.GetSessionHandler)
		r.Post("/sessions/{id}/combine", s.handlers.CombineSessionHandler)
		r.Delete("/sessions/{id}", s.handlers.DeleteSessionHandler)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after a graceful Stop.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.tlsConfig != nil {
		s.logger.Info("Starting HTTPS server", logger.String("addr", ln.Addr().String()))
		err = s.server.ServeTLS(ln, "", "")
	} else {
		s.logger.Info("Starting HTTP server", logger.String("addr", ln.Addr().String()))
		err = s.server.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", logger.Error(err))
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}
