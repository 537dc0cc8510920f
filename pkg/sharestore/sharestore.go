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

// Package sharestore persists share sets on a storage.Backend, one JSON
// document per share under shares/<session>/<index>.json.
//
// Only shares are written. A store never sees the secret or the polynomial.
package sharestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
)

const (
	// Prefix is the key prefix under which all share sets live.
	Prefix = "shares/"

	fileSuffix = ".json"
)

var (
	// ErrSessionNotFound is returned when no shares exist for a session.
	ErrSessionNotFound = errors.New("sharestore: session not found")

	// ErrSessionExists is returned by SaveSet when the session already has
	// stored shares.
	ErrSessionExists = errors.New("sharestore: session already exists")

	// ErrUntagged is returned when a share carries no session metadata.
	ErrUntagged = errors.New("sharestore: share has no session")
)

// SessionInfo summarises a stored share set.
type SessionInfo struct {
	ID        string `json:"id"`
	Shares    int    `json:"shares"`
	Threshold int    `json:"threshold"`
	Total     int    `json:"total"`
}

// Store saves and loads share sets.
type Store struct {
	backend storage.Backend
	logger  logger.Logger
}

// Config configures a Store.
type Config struct {
	Backend storage.Backend
	Logger  logger.Logger
}

// New creates a Store over config.Backend.
func New(config *Config) (*Store, error) {
	if config == nil || config.Backend == nil {
		return nil, fmt.Errorf("sharestore: backend is required")
	}
	log := config.Logger
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Store{backend: config.Backend, logger: log.With(logger.String("component", "sharestore"))}, nil
}

// Key returns the storage key of the index'th (1-based) share of a session.
func Key(session string, index int) string {
	return Prefix + session + "/" + strconv.Itoa(index) + fileSuffix
}

func sessionPrefix(session string) string {
	return Prefix + session + "/"
}

// SaveSet writes every share of one session. Shares must be tagged and share
// a session. Existing sessions are never overwritten.
func (s *Store) SaveSet(shares []shamir.Share) (err error) {
	start := time.Now()
	defer func() { record(metrics.OpStore, start, err) }()

	if len(shares) == 0 {
		return fmt.Errorf("%w: no shares to save", shamir.ErrInsufficientShares)
	}
	session := shares[0].Session
	for i, sh := range shares {
		if !sh.Tagged() || sh.Session == "" {
			return fmt.Errorf("%w: share %d", ErrUntagged, i)
		}
		if sh.Session != session {
			return fmt.Errorf("%w: share %d belongs to %q", shamir.ErrMixedSessions, i, sh.Session)
		}
	}
	if err := validation.ValidateSessionID(session); err != nil {
		return err
	}

	existing, err := s.backend.List(sessionPrefix(session))
	if err != nil {
		return fmt.Errorf("sharestore: failed to list session: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", ErrSessionExists, session)
	}

	written := make([]string, 0, len(shares))
	for i, sh := range shares {
		data, err := json.MarshalIndent(sh, "", "  ")
		if err != nil {
			return fmt.Errorf("sharestore: failed to encode share %d: %w", i, err)
		}
		key := Key(session, i+1)
		if err := s.backend.Put(key, data, storage.DefaultOptions()); err != nil {
			s.rollback(written)
			return fmt.Errorf("sharestore: failed to write share %d: %w", i, err)
		}
		written = append(written, key)
	}

	s.logger.Info("share set saved",
		logger.String("session", session),
		logger.Int("shares", len(shares)),
		logger.Int("threshold", shares[0].Threshold))
	s.refreshGauge()
	return nil
}

func (s *Store) rollback(keys []string) {
	for _, k := range keys {
		if err := s.backend.Delete(k); err != nil {
			s.logger.Warn("rollback failed", logger.String("key", k), logger.Error(err))
		}
	}
}

// LoadSet returns every stored share of a session ordered by index.
func (s *Store) LoadSet(session string) (shares []shamir.Share, err error) {
	start := time.Now()
	defer func() { record(metrics.OpLoad, start, err) }()

	if err := validation.ValidateSessionID(session); err != nil {
		return nil, err
	}
	keys, err := s.sortedKeys(session)
	if err != nil {
		return nil, err
	}

	shares = make([]shamir.Share, 0, len(keys))
	for _, key := range keys {
		data, err := s.backend.Get(key)
		if err != nil {
			return nil, fmt.Errorf("sharestore: failed to read %s: %w", key, err)
		}
		sh, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("sharestore: %s: %w", key, err)
		}
		if sh.Session != session {
			return nil, fmt.Errorf("%w: %s belongs to %q", shamir.ErrMixedSessions, key, sh.Session)
		}
		shares = append(shares, sh)
	}
	return shares, nil
}

// ListSessions returns a summary of every stored session sorted by ID.
func (s *Store) ListSessions() (infos []SessionInfo, err error) {
	start := time.Now()
	defer func() { record(metrics.OpList, start, err) }()

	keys, err := s.backend.List(Prefix)
	if err != nil {
		return nil, fmt.Errorf("sharestore: failed to list shares: %w", err)
	}

	counts := make(map[string]int)
	first := make(map[string]string)
	for _, key := range keys {
		session, _, ok := strings.Cut(strings.TrimPrefix(key, Prefix), "/")
		if !ok {
			continue
		}
		if counts[session] == 0 {
			first[session] = key
		}
		counts[session]++
	}

	infos = make([]SessionInfo, 0, len(counts))
	for session, n := range counts {
		info := SessionInfo{ID: session, Shares: n}
		if data, err := s.backend.Get(first[session]); err == nil {
			if sh, err := Decode(data); err == nil {
				info.Threshold = sh.Threshold
				info.Total = sh.Total
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	metrics.SetStoredSessions(len(infos))
	return infos, nil
}

// DeleteSet removes every share of a session and returns how many were removed.
func (s *Store) DeleteSet(session string) (n int, err error) {
	start := time.Now()
	defer func() { record(metrics.OpDelete, start, err) }()

	if err := validation.ValidateSessionID(session); err != nil {
		return 0, err
	}
	keys, err := s.sortedKeys(session)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := s.backend.Delete(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return n, fmt.Errorf("sharestore: failed to delete %s: %w", key, err)
		}
		n++
	}

	s.logger.Info("share set deleted", logger.String("session", session), logger.Int("shares", n))
	s.refreshGauge()
	return n, nil
}

// sortedKeys returns the session's share keys ordered by numeric index.
func (s *Store) sortedKeys(session string) ([]string, error) {
	keys, err := s.backend.List(sessionPrefix(session))
	if err != nil {
		return nil, fmt.Errorf("sharestore: failed to list session: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, session)
	}
	sort.SliceStable(keys, func(i, j int) bool { return index(keys[i]) < index(keys[j]) })
	return keys, nil
}

func index(key string) int {
	base := key[strings.LastIndex(key, "/")+1:]
	n, err := strconv.Atoi(strings.TrimSuffix(base, fileSuffix))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

func (s *Store) refreshGauge() {
	if !metrics.IsEnabled() {
		return
	}
	keys, err := s.backend.List(Prefix)
	if err != nil {
		return
	}
	sessions := make(map[string]struct{})
	for _, key := range keys {
		if session, _, ok := strings.Cut(strings.TrimPrefix(key, Prefix), "/"); ok {
			sessions[session] = struct{}{}
		}
	}
	metrics.SetStoredSessions(len(sessions))
}

// Decode parses one JSON share document and validates its metadata.
func Decode(data []byte) (shamir.Share, error) {
	var sh shamir.Share
	if err := json.Unmarshal(data, &sh); err != nil {
		return shamir.Share{}, fmt.Errorf("%w: %v", shamir.ErrInvalidShare, err)
	}
	if err := sh.Validate(); err != nil {
		return shamir.Share{}, err
	}
	return sh, nil
}

func record(op string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		metrics.RecordError(op, errorType(err))
	}
	metrics.RecordOperation(op, status, time.Since(start).Seconds())
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionExists):
		return "session_exists"
	case errors.Is(err, validation.ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, shamir.ErrInvalidShare):
		return "invalid_share"
	default:
		return "storage"
	}
}
