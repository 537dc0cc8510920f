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

// Package service ties the share generator, the reconstructor, the share
// store, logging and metrics together for the sss CLI and the sssd daemon.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jeremyhahn/go-shamir/internal/config"
	"github.com/jeremyhahn/go-shamir/pkg/field"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/rand"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/textshare"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
)

// ErrStoreDisabled is returned by session operations when the service was
// built without a share store.
var ErrStoreDisabled = errors.New("service: share store not configured")

// Config configures a SharingService.
type Config struct {
	// Field defaults to field.Default()
	Field *field.Field

	// Rand is the randomness source. Defaults to a software resolver.
	Rand rand.Resolver

	// XMode is used when a SplitRequest does not name one
	XMode shamir.XMode

	// Workers bounds parallel reconstruction. Zero means sequential.
	Workers int

	// Store enables persistence of share sets. Optional.
	Store *sharestore.Store

	Logger logger.Logger
}

// SplitRequest asks for secret to be split into Shares shares with the
// given Threshold.
type SplitRequest struct {
	Secret    *big.Int
	Shares    int
	Threshold int

	// XMode overrides the service default when set
	XMode shamir.XMode

	// Persist writes the share set to the share store
	Persist bool
}

// SplitResult is the outcome of a split.
type SplitResult struct {
	Session string
	Shares  []shamir.Share
	Stored  bool
}

// TextSplitRequest asks for a byte string to be split.
type TextSplitRequest struct {
	Secret    []byte
	Shares    int
	Threshold int
}

// SharingService performs split and combine operations.
type SharingService struct {
	field         *field.Field
	rand          rand.Resolver
	xMode         shamir.XMode
	generator     *shamir.Generator
	reconstructor *shamir.Reconstructor
	store         *sharestore.Store
	logger        logger.Logger
}

// New creates a SharingService.
func New(cfg *Config) (*SharingService, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	f := cfg.Field
	if f == nil {
		f = field.Default()
	}
	resolver := cfg.Rand
	if resolver == nil {
		resolver = &rand.SoftwareResolver{}
	}
	xMode, err := shamir.ParseXMode(string(cfg.XMode))
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	generator, err := shamir.NewGenerator(&shamir.GeneratorConfig{
		Field: f,
		Rand:  resolver,
		XMode: xMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	reconstructor, err := shamir.NewReconstructor(&shamir.ReconstructorConfig{
		Field:   f,
		Workers: cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reconstructor: %w", err)
	}

	return &SharingService{
		field:         f,
		rand:          resolver,
		xMode:         xMode,
		generator:     generator,
		reconstructor: reconstructor,
		store:         cfg.Store,
		logger:        log.With(logger.String("component", "sharing")),
	}, nil
}

// NewFromConfig builds a SharingService from the application configuration.
// store may be nil. The returned service owns its randomness source; call
// Close when done.
func NewFromConfig(cfg *config.Config, store *sharestore.Store, log logger.Logger) (*SharingService, error) {
	f, err := cfg.Field()
	if err != nil {
		return nil, err
	}
	resolver, err := rand.NewResolver(cfg.RandConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create RNG resolver: %w", err)
	}
	svc, err := New(&Config{
		Field:   f,
		Rand:    resolver,
		XMode:   shamir.XMode(cfg.Sharing.XMode),
		Workers: cfg.Sharing.Workers,
		Store:   store,
		Logger:  log,
	})
	if err != nil {
		_ = resolver.Close()
		return nil, err
	}
	if resolver.Mode() == rand.ModeSeeded {
		svc.logger.Warn("Using deterministic seeded randomness; shares are reproducible")
	}
	return svc, nil
}

// Field returns the prime field shares are computed in.
func (s *SharingService) Field() *field.Field {
	return s.field
}

// Rand returns the randomness source.
func (s *SharingService) Rand() rand.Resolver {
	return s.rand
}

// HasStore reports whether session operations are available.
func (s *SharingService) HasStore() bool {
	return s.store != nil
}

// Close releases the randomness source.
func (s *SharingService) Close() error {
	return s.rand.Close()
}

// Split divides req.Secret into shares.
func (s *SharingService) Split(ctx context.Context, req SplitRequest) (result *SplitResult, err error) {
	start := time.Now()
	defer func() { s.record(ctx, metrics.OpSplit, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Secret == nil {
		return nil, fmt.Errorf("%w: secret is required", validation.ErrMalformedInput)
	}
	if req.Persist && s.store == nil {
		return nil, ErrStoreDisabled
	}

	generator, err := s.generatorFor(req.XMode)
	if err != nil {
		return nil, err
	}
	shares, err := generator.Generate(req.Shares, req.Threshold, req.Secret)
	if err != nil {
		return nil, err
	}
	session := shares[0].Session

	result = &SplitResult{Session: session, Shares: shares}
	if req.Persist {
		if err := s.store.SaveSet(shares); err != nil {
			return nil, fmt.Errorf("failed to store shares: %w", err)
		}
		result.Stored = true
	}

	metrics.AddSharesIssued(len(shares))
	s.logger.InfoContext(ctx, "Secret split",
		logger.String("session", session),
		logger.Int("shares", req.Shares),
		logger.Int("threshold", req.Threshold),
		logger.Bool("stored", result.Stored))
	return result, nil
}

// Combine reconstructs the secret from shares.
func (s *SharingService) Combine(ctx context.Context, shares []shamir.Share) (secret *big.Int, err error) {
	start := time.Now()
	defer func() { s.record(ctx, metrics.OpCombine, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	secret, err = s.reconstructor.Reconstruct(shares)
	if err != nil {
		return nil, err
	}

	metrics.AddSharesCombined(len(shares))
	session := ""
	if len(shares) > 0 {
		session = shares[0].Session
	}
	s.logger.InfoContext(ctx, "Secret combined",
		logger.String("session", session),
		logger.Int("shares", len(shares)))
	return secret, nil
}

// CombineSession loads a stored share set and reconstructs its secret.
func (s *SharingService) CombineSession(ctx context.Context, session string) (*big.Int, error) {
	shares, err := s.LoadSession(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.Combine(ctx, shares)
}

// SplitText divides a byte string into text shares.
func (s *SharingService) SplitText(ctx context.Context, req TextSplitRequest) (shares []textshare.Share, err error) {
	start := time.Now()
	defer func() { s.record(ctx, metrics.OpSplitText, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shares, err = textshare.SplitFrom(s.rand, req.Secret, req.Threshold, req.Shares)
	if err != nil {
		return nil, err
	}

	metrics.AddSharesIssued(len(shares))
	s.logger.InfoContext(ctx, "Text secret split",
		logger.String("session", shares[0].Session),
		logger.Int("shares", req.Shares),
		logger.Int("threshold", req.Threshold),
		logger.Int("secret_bytes", len(req.Secret)))
	return shares, nil
}

// CombineText reconstructs a byte string from text shares.
func (s *SharingService) CombineText(ctx context.Context, shares []textshare.Share) (secret []byte, err error) {
	start := time.Now()
	defer func() { s.record(ctx, metrics.OpCombineText, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	secret, err = textshare.Combine(shares)
	if err != nil {
		return nil, err
	}

	metrics.AddSharesCombined(len(shares))
	s.logger.InfoContext(ctx, "Text secret combined", logger.Int("shares", len(shares)))
	return secret, nil
}

// LoadSession returns the stored shares of a session.
func (s *SharingService) LoadSession(ctx context.Context, session string) ([]shamir.Share, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.LoadSet(session)
}

// Sessions lists stored share sets.
func (s *SharingService) Sessions(ctx context.Context) ([]sharestore.SessionInfo, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListSessions()
}

// DeleteSession removes a stored share set and returns the number of shares
// deleted.
func (s *SharingService) DeleteSession(ctx context.Context, session string) (int, error) {
	if s.store == nil {
		return 0, ErrStoreDisabled
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteSet(session)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Share set deleted",
		logger.String("session", session),
		logger.Int("shares", n))
	return n, nil
}

func (s *SharingService) generatorFor(mode shamir.XMode) (*shamir.Generator, error) {
	if mode == "" || mode == s.xMode {
		return s.generator, nil
	}
	return shamir.NewGenerator(&shamir.GeneratorConfig{
		Field: s.field,
		Rand:  s.rand,
		XMode: mode,
	})
}

func (s *SharingService) record(ctx context.Context, op string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		kind := ErrorType(err)
		metrics.RecordError(op, kind)
		s.logger.WarnContext(ctx, "Operation failed",
			logger.String("operation", op),
			logger.String("error_type", kind),
			logger.Error(err))
	}
	metrics.RecordOperation(op, status, time.Since(start).Seconds())
}

// ErrorType maps an error to the error_type metric label.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, shamir.ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, shamir.ErrDuplicateXCoordinate):
		return "duplicate_x"
	case errors.Is(err, shamir.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, shamir.ErrSecretOutOfRange):
		return "secret_out_of_range"
	case errors.Is(err, shamir.ErrInvalidShare):
		return "invalid_share"
	case errors.Is(err, shamir.ErrMixedSessions):
		return "mixed_sessions"
	case errors.Is(err, validation.ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, sharestore.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, sharestore.ErrSessionExists):
		return "session_exists"
	case errors.Is(err, ErrStoreDisabled):
		return "store_disabled"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
