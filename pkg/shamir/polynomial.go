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

	"github.com/jeremyhahn/go-shamir/pkg/field"
)

// polynomial is P(x) = coeffs[0] + coeffs[1]*x + ... over a prime field.
// coeffs[0] is the encoded secret.
type polynomial struct {
	field  *field.Field
	coeffs []*big.Int
}

// newRandomPolynomial returns a polynomial of the given degree with constant
// term secret and the remaining coefficients drawn uniformly from the field.
func newRandomPolynomial(f *field.Field, secret *big.Int, degree int, r io.Reader) (*polynomial, error) {
	coeffs := make([]*big.Int, degree+1)
	coeffs[0] = new(big.Int).Set(secret)
	for i := 1; i <= degree; i++ {
		c, err := f.Random(r)
		if err != nil {
			(&polynomial{coeffs: coeffs[:i]}).zero()
			return nil, fmt.Errorf("failed to generate random coefficients: %w", err)
		}
		coeffs[i] = c
	}
	return &polynomial{field: f, coeffs: coeffs}, nil
}

// evaluate returns P(x) using Horner's method:
// P(x) = a0 + x(a1 + x(a2 + ... + x*an))
func (p *polynomial) evaluate(x *big.Int) *big.Int {
	result := p.field.Reduce(p.coeffs[len(p.coeffs)-1])
	for i := len(p.coeffs) - 2; i >= 0; i-- {
		result = p.field.Add(p.field.Mul(result, x), p.coeffs[i])
	}
	return result
}

// zero overwrites every coefficient, including the secret.
func (p *polynomial) zero() {
	for _, c := range p.coeffs {
		if c != nil {
			c.SetInt64(0)
		}
	}
}
