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
	"math/big"

	"github.com/jeremyhahn/go-shamir/pkg/field"
	"golang.org/x/sync/errgroup"
)

// parallelMinShares is the smallest share set for which Lagrange terms are
// computed concurrently.
const parallelMinShares = 16

// ReconstructorConfig configures a Reconstructor.
type ReconstructorConfig struct {
	// Field must match the field the shares were generated over.
	// Defaults to field.Default().
	Field *field.Field

	// Workers bounds concurrent Lagrange term computation. Values <= 1
	// compute sequentially.
	Workers int
}

// Reconstructor recovers secrets from shares. It is stateless and safe for
// concurrent use.
type Reconstructor struct {
	field   *field.Field
	workers int
}

// NewReconstructor creates a Reconstructor. A nil config selects all defaults.
func NewReconstructor(config *ReconstructorConfig) (*Reconstructor, error) {
	if config == nil {
		config = &ReconstructorConfig{}
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidParameters, config.Workers)
	}

	f := config.Field
	if f == nil {
		f = field.Default()
	}
	return &Reconstructor{field: f, workers: config.Workers}, nil
}

// Field returns the field the reconstructor works over.
func (r *Reconstructor) Field() *field.Field {
	return r.field
}

// Reconstruct returns the secret encoded by shares.
//
// Tagged shares must agree on session and threshold, and at least Threshold
// of them must be supplied. Untagged shares are interpolated as given: the
// result is only the secret when the caller supplies enough of them.
func (r *Reconstructor) Reconstruct(shares []Share) (*big.Int, error) {
	if err := r.checkMetadata(shares); err != nil {
		return nil, err
	}
	v, err := r.interpolate(shares)
	if err != nil {
		return nil, err
	}
	return r.field.Decode(v), nil
}

// Interpolate evaluates at x = 0 the unique polynomial of degree
// len(points)-1 through points and returns the field element. Metadata on
// the points is ignored.
func Interpolate(f *field.Field, points []Share) (*big.Int, error) {
	r := &Reconstructor{field: f}
	return r.interpolate(points)
}

func (r *Reconstructor) checkMetadata(shares []Share) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: no shares provided", ErrInsufficientShares)
	}

	first := shares[0]
	for i, s := range shares {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid share %d: %w", i, err)
		}
		if s.Tagged() != first.Tagged() {
			return fmt.Errorf("%w: share %d mixes tagged and untagged shares", ErrMixedSessions, i)
		}
		if s.Threshold != first.Threshold {
			return fmt.Errorf("%w: share %d has threshold %d, share 0 has %d",
				ErrMixedSessions, i, s.Threshold, first.Threshold)
		}
		if s.Session != first.Session {
			return fmt.Errorf("%w: share %d belongs to session %q, share 0 to %q",
				ErrMixedSessions, i, s.Session, first.Session)
		}
	}

	if first.Tagged() && len(shares) < first.Threshold {
		return fmt.Errorf("%w: need at least %d shares, got %d",
			ErrInsufficientShares, first.Threshold, len(shares))
	}
	return nil
}

func (r *Reconstructor) interpolate(points []Share) (*big.Int, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no shares provided", ErrInsufficientShares)
	}
	for i, p := range points {
		if p.X == nil || p.Y == nil {
			return nil, fmt.Errorf("%w: share %d is missing a coordinate", ErrInvalidShare, i)
		}
		if p.X.Sign() == 0 || !r.field.Contains(p.X) {
			return nil, fmt.Errorf("%w: share %d has x outside [1, p)", ErrInvalidShare, i)
		}
		if !r.field.Contains(p.Y) {
			return nil, fmt.Errorf("%w: share %d has y outside [0, p)", ErrInvalidShare, i)
		}
	}
	if err := CheckDistinct(points); err != nil {
		return nil, err
	}

	terms := make([]*big.Int, len(points))
	if r.workers > 1 && len(points) >= parallelMinShares {
		var g errgroup.Group
		g.SetLimit(r.workers)
		for i := range points {
			g.Go(func() error {
				term, err := r.lagrangeTerm(points, i)
				if err != nil {
					return err
				}
				terms[i] = term
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range points {
			term, err := r.lagrangeTerm(points, i)
			if err != nil {
				return nil, err
			}
			terms[i] = term
		}
	}

	sum := new(big.Int)
	for _, term := range terms {
		sum = r.field.Add(sum, term)
	}
	return sum, nil
}

// lagrangeTerm returns y_i * prod_{j != i} x_j / (x_j - x_i).
func (r *Reconstructor) lagrangeTerm(points []Share, i int) (*big.Int, error) {
	xi := points[i].X
	num := big.NewInt(1)
	den := big.NewInt(1)

	for j := range points {
		if j == i {
			continue
		}
		xj := points[j].X
		num = r.field.Mul(num, xj)
		den = r.field.Mul(den, r.field.Sub(xj, xi))
	}

	basis, err := r.field.Div(num, den)
	if err != nil {
		// Unreachable once x-coordinates are distinct and in range.
		return nil, fmt.Errorf("%w: %v", ErrDuplicateXCoordinate, err)
	}
	return r.field.Mul(points[i].Y, basis), nil
}
