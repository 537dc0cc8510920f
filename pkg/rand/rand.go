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

// Package rand provides the randomness sources injected into share generation.
//
// # RNG Sources
//
//   - Software: crypto/rand, the default for every production sharing
//   - Seeded: a deterministic ChaCha20 keystream derived from a seed with
//     HKDF-SHA256. Identical seeds produce identical streams, which makes
//     share generation reproducible in tests. Never use it for real secrets.
//
// # Usage
//
//	rng, _ := rand.NewResolver(rand.ModeSoftware)
//	gen, _ := shamir.NewGenerator(&shamir.GeneratorConfig{Rand: rng})
//
//	// In tests only
//	rng, _ := rand.NewResolver(&rand.Config{Mode: rand.ModeSeeded, Seed: []byte("fixture")})
//
// # Thread Safety
//
// All Resolver implementations are safe for concurrent use.
package rand

import (
	"crypto/rand"
	"fmt"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeSoftware uses crypto/rand (stdlib secure random)
	ModeSoftware Mode = "software"

	// ModeSeeded uses a deterministic ChaCha20 stream keyed from Config.Seed
	ModeSeeded Mode = "seeded"
)

// Config contains RNG configuration.
type Config struct {
	// Mode specifies the RNG source to use.
	// Defaults to ModeSoftware if not specified.
	Mode Mode

	// Seed is the input keying material for ModeSeeded. Required for that
	// mode and ignored otherwise.
	Seed []byte
}

// Resolver provides the main interface for generating random numbers.
//
// Resolver implements io.Reader, making it usable anywhere an io.Reader is
// expected for random number generation.
type Resolver interface {
	// Rand returns n random bytes from the configured source.
	Rand(n int) ([]byte, error)

	// Read implements io.Reader.
	Read(p []byte) (n int, err error)

	// Mode returns the source mode backing this resolver.
	Mode() Mode

	// Available returns true if the source is ready.
	Available() bool

	// Close releases any resources held by the resolver.
	Close() error
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSoftware:
		return ModeSoftware, nil
	case ModeSeeded:
		return ModeSeeded, nil
	default:
		return "", fmt.Errorf("unknown RNG mode: %s", s)
	}
}

// NewResolver creates a new RNG resolver. config may be nil, a Mode or a *Config.
func NewResolver(config interface{}) (Resolver, error) {
	cfg := normalizeConfig(config)

	switch cfg.Mode {
	case ModeSoftware:
		return &SoftwareResolver{}, nil
	case ModeSeeded:
		return newSeededResolver(cfg.Seed)
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", cfg.Mode)
	}
}

// normalizeConfig converts various config types to *Config.
func normalizeConfig(config interface{}) *Config {
	if config == nil {
		return &Config{Mode: ModeSoftware}
	}

	switch v := config.(type) {
	case Mode:
		if v == "" {
			v = ModeSoftware
		}
		return &Config{Mode: v}
	case *Config:
		if v == nil {
			return &Config{Mode: ModeSoftware}
		}
		c := *v
		if c.Mode == "" {
			c.Mode = ModeSoftware
		}
		return &c
	default:
		return &Config{Mode: ModeSoftware}
	}
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid byte count: %d", n)
	}
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

// Read implements io.Reader for compatibility with crypto/rand.Reader.
func (s *SoftwareResolver) Read(p []byte) (n int, err error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Mode() Mode {
	return ModeSoftware
}

func (s *SoftwareResolver) Available() bool {
	return true
}

func (s *SoftwareResolver) Close() error {
	return nil
}
