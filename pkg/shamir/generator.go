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

package shamir

import (
	"fmt"
	"io"
	"math/big"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-shamir/pkg/field"
	"github.com/jeremyhahn/go-shamir/pkg/rand"
)

// XMode selects how share x-coordinates are chosen.
type XMode string

const (
	// XModeRandom draws distinct x-coordinates uniformly from [1, p).
	XModeRandom XMode = "random"

	// XModeSequential uses x = 1, 2, ..., n.
	XModeSequential XMode = "sequential"
)

// ParseXMode converts a configuration string into an XMode.
func ParseXMode(s string) (XMode, error) {
	switch XMode(s) {
	case "", XModeRandom:
		return XModeRandom, nil
	case XModeSequential:
		return XModeSequential, nil
	default:
		return "", fmt.Errorf("%w: unknown x-mode %q", ErrInvalidParameters, s)
	}
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	// Field is the prime field to share over. Defaults to field.Default().
	Field *field.Field

	// Rand is the randomness source for coefficients, x-coordinates and
	// session IDs. Defaults to crypto/rand.
	Rand io.Reader

	// XMode selects how x-coordinates are chosen. Defaults to XModeRandom.
	XMode XMode
}

// Generator splits secrets into shares. It holds no per-sharing state and is
// safe for concurrent use when its Rand source is.
type Generator struct {
	field *field.Field
	rand  io.Reader
	xMode XMode
}

// NewGenerator creates a Generator. A nil config selects all defaults.
func NewGenerator(config *GeneratorConfig) (*Generator, error) {
	if config == nil {
		config = &GeneratorConfig{}
	}

	g := &Generator{
		field: config.Field,
		rand:  config.Rand,
		xMode: config.XMode,
	}
	if g.field == nil {
		g.field = field.Default()
	}
	if g.rand == nil {
		g.rand = &rand.SoftwareResolver{}
	}
	if g.xMode == "" {
		g.xMode = XModeRandom
	}
	if _, err := ParseXMode(string(g.xMode)); err != nil {
		return nil, err
	}
	return g, nil
}

// Field returns the field the generator shares over.
func (g *Generator) Field() *field.Field {
	return g.field
}

// Generate splits secret into n shares, any t of which reconstruct it.
func (g *Generator) Generate(n, t int, secret *big.Int) ([]Share, error) {
	if err := g.validateParams(n, t); err != nil {
		return nil, err
	}

	xs, err := g.chooseX(n)
	if err != nil {
		return nil, err
	}
	return g.split(xs, t, secret)
}

// GenerateInt64 is Generate for secrets that fit in an int64.
func (g *Generator) GenerateInt64(n, t int, secret int64) ([]Share, error) {
	return g.Generate(n, t, big.NewInt(secret))
}

// GenerateAt splits secret into one share per caller-supplied x-coordinate.
// Each x must lie in [1, p) and all must be distinct.
func (g *Generator) GenerateAt(xs []*big.Int, t int, secret *big.Int) ([]Share, error) {
	if err := g.validateParams(len(xs), t); err != nil {
		return nil, err
	}
	for i, x := range xs {
		if x == nil || x.Sign() <= 0 || !g.field.Contains(x) {
			return nil, fmt.Errorf("%w: x-coordinate %d must be in [1, p)", ErrInvalidParameters, i)
		}
	}
	points := make([]Share, len(xs))
	for i, x := range xs {
		points[i].X = x
	}
	if err := CheckDistinct(points); err != nil {
		return nil, err
	}

	own := make([]*big.Int, len(xs))
	for i, x := range xs {
		own[i] = new(big.Int).Set(x)
	}
	return g.split(own, t, secret)
}

func (g *Generator) validateParams(n, t int) error {
	if t < 1 {
		return fmt.Errorf("%w: threshold must be at least 1, got %d", ErrInvalidParameters, t)
	}
	if n < 1 {
		return fmt.Errorf("%w: total shares must be at least 1, got %d", ErrInvalidParameters, n)
	}
	if t > n {
		return fmt.Errorf("%w: threshold (%d) must be <= total shares (%d)", ErrInvalidParameters, t, n)
	}
	// n distinct non-zero x-coordinates must exist in the field.
	if big.NewInt(int64(n)).Cmp(g.field.Modulus()) >= 0 {
		return fmt.Errorf("%w: total shares (%d) must be < field modulus", ErrInvalidParameters, n)
	}
	return nil
}

// chooseX returns n distinct non-zero x-coordinates.
func (g *Generator) chooseX(n int) ([]*big.Int, error) {
	xs := make([]*big.Int, 0, n)

	if g.xMode == XModeSequential {
		for i := 1; i <= n; i++ {
			xs = append(xs, big.NewInt(int64(i)))
		}
		return xs, nil
	}

	seen := make(map[string]struct{}, n)
	for len(xs) < n {
		x, err := g.field.RandomNonZero(g.rand)
		if err != nil {
			return nil, fmt.Errorf("failed to generate x-coordinate: %w", err)
		}
		key := x.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		xs = append(xs, x)
	}
	return xs, nil
}

func (g *Generator) split(xs []*big.Int, t int, secret *big.Int) ([]Share, error) {
	encoded, err := g.field.Encode(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSecretOutOfRange, err)
	}

	session, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	poly, err := newRandomPolynomial(g.field, encoded, t-1, g.rand)
	if err != nil {
		return nil, err
	}
	defer poly.zero()
	encoded.SetInt64(0)

	shares := make([]Share, len(xs))
	for i, x := range xs {
		shares[i] = Share{
			X:         x,
			Y:         poly.evaluate(x),
			Threshold: t,
			Total:     len(xs),
			Session:   session.String(),
		}
	}
	return shares, nil
}
