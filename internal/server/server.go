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

// Package server assembles and runs the sssd daemon: share store, sharing
// service, health checks, metrics and the REST API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-shamir/internal/config"
	"github.com/jeremyhahn/go-shamir/internal/rest"
	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/health"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/ratelimit"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

// checkTimeout bounds each readiness check
const checkTimeout = 2 * time.Second

// Server is the sssd daemon.
type Server struct {
	config  *config.Config
	logger  logger.Logger
	version string

	backend       storage.Backend
	service       *service.SharingService
	healthChecker *health.Checker
	limiter       *ratelimit.Limiter
	restServer    *rest.Server
	listener      net.Listener

	metricsCollector *metrics.ResourceCollector

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	errCh        chan error
}

// New creates the daemon from cfg. Nothing listens until Start.
func New(cfg *config.Config) (*Server, error) {
	log := cfg.NewLogger()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:     cfg,
		logger:     log,
		version:    getBuildVersion(),
		ctx:        ctx,
		cancel:     cancel,
		shutdownCh: make(chan struct{}),
		errCh:      make(chan error, 1),
	}

	if err := s.initialize(); err != nil {
		cancel()
		s.closeResources()
		return nil, err
	}
	return s, nil
}

func (s *Server) initialize() error {
	backend, err := s.config.OpenStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.backend = backend

	store, err := sharestore.New(&sharestore.Config{Backend: backend, Logger: s.logger})
	if err != nil {
		return fmt.Errorf("failed to initialize share store: %w", err)
	}

	s.service, err = service.NewFromConfig(s.config, store, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sharing service: %w", err)
	}

	s.initializeHealth()

	s.limiter = ratelimit.New(&ratelimit.Config{
		Enabled:           s.config.RateLimit.Enabled,
		RequestsPerMinute: s.config.RateLimit.RequestsPerMin,
		Burst:             s.config.RateLimit.Burst,
		TrustProxyHeaders: s.config.RateLimit.TrustProxyHeaders,
	})

	tlsConfig, err := s.config.TLS.LoadTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to load TLS configuration: %w", err)
	}

	metricsPath := ""
	if s.config.Metrics.Enabled {
		metricsPath = s.config.Metrics.Path
	}

	s.restServer, err = rest.NewServer(&rest.Config{
		Addr:         s.config.Addr(),
		Service:      s.service,
		Health:       s.healthChecker,
		Version:      s.version,
		TLSConfig:    tlsConfig,
		RateLimiter:  s.limiter,
		MetricsPath:  metricsPath,
		MaxBodyBytes: s.config.Server.MaxBodyBytes,
		Logger:       s.logger,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create REST server: %w", err)
	}
	return nil
}

// initializeHealth registers the storage and randomness checks.
func (s *Server) initializeHealth() {
	s.healthChecker = health.NewChecker()

	storageCheck := health.StorageCheck(s.backend, sharestore.Prefix)
	s.healthChecker.RegisterCheck("storage", func(ctx context.Context) health.CheckResult {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		done := make(chan health.CheckResult, 1)
		go func() { done <- storageCheck(checkCtx) }()

		select {
		case result := <-done:
			return result
		case <-checkCtx.Done():
			return health.CheckResult{
				Name:    "storage",
				Status:  health.StatusUnhealthy,
				Message: "share store check timed out",
				Error:   "timeout",
			}
		}
	})
	s.healthChecker.RegisterCheck("rng", health.RandCheck(s.service.Rand()))

	s.logger.Debug("Health checker initialized", logger.Int("checks", len(s.healthChecker.Checks())))
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly. Later serve errors are reported by Err.
func (s *Server) Start() error {
	s.logger.Info("Starting sssd",
		logger.String("version", s.version),
		logger.String("addr", s.config.Addr()),
		logger.String("modulus", s.config.Sharing.Modulus),
		logger.String("storage", s.config.Storage.Backend))

	if s.config.Metrics.Enabled {
		metrics.Enable()
		s.metricsCollector = metrics.StartResourceCollector(s.ctx, 15*time.Second)
	} else {
		metrics.Disable()
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.restServer.Serve(ln); err != nil {
			s.logger.Error("REST server error", logger.Error(err))
			s.errCh <- err
		}
	}()

	s.healthChecker.MarkStarted()
	s.logger.Info("sssd started", logger.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or the configured address
// before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr()
}

// Err reports a fatal serve error.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Shutdown drains in-flight requests within the configured shutdown timeout
// and releases all resources. It is safe to call more than once.
func (s *Server) Shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down sssd...")
		s.healthChecker.MarkNotStarted()

		if s.metricsCollector != nil {
			s.metricsCollector.Stop()
		}
		s.cancel()

		timeout := s.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.restServer.Stop(shutdownCtx); err != nil {
			shutdownErr = err
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			s.logger.Warn("Shutdown timeout exceeded, forcing stop")
		}

		s.closeResources()
		close(s.shutdownCh)
		s.logger.Info("Shutdown complete")
	})
	return shutdownErr
}

func (s *Server) closeResources() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.service != nil {
		if err := s.service.Close(); err != nil {
			s.logger.Error("Error closing RNG", logger.Error(err))
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("Error closing storage", logger.Error(err))
		}
	}
}

// WaitForShutdown blocks until Shutdown has completed.
func (s *Server) WaitForShutdown() {
	<-s.shutdownCh
}

// Health returns the daemon's health checker.
func (s *Server) Health() *health.Checker {
	return s.healthChecker
}

// Version returns the build version reported by /health.
func (s *Server) Version() string {
	return s.version
}

// SetupSignalHandler returns a context canceled on SIGINT or SIGTERM.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-signalCh
		slog.Info("Received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	return ctx
}

// getBuildVersion returns the VCS tag or short revision, the module
// version, or "dev".
func getBuildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.version":
			if setting.Value != "" && setting.Value != "devel" {
				return setting.Value
			}
		case "vcs.revision":
			if len(setting.Value) >= 7 {
				return setting.Value[:7]
			}
			return setting.Value
		}
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
