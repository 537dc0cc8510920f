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
	"bytes"
	"math/big"
	"testing"

	"github.com/jeremyhahn/go-shamir/pkg/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolynomial_Evaluate(t *testing.T) {
	f, err := field.New(big.NewInt(101))
	require.NoError(t, err)

	// P(x) = 7 + 5x + 3x^2 + 100x^3 mod 101
	p := &polynomial{
		field:  f,
		coeffs: []*big.Int{big.NewInt(7), big.NewInt(5), big.NewInt(3), big.NewInt(100)},
	}

	for x := int64(0); x < 101; x++ {
		want := (7 + 5*x + 3*x*x + 100*x*x*x) % 101
		got := p.evaluate(big.NewInt(x))
		require.Equal(t, want, got.Int64(), "x=%d", x)
	}

	// Evaluation leaves the coefficients untouched.
	assert.Equal(t, int64(100), p.coeffs[3].Int64())
}

func TestPolynomial_Random(t *testing.T) {
	f := field.Default()
	secret := big.NewInt(42)

	p, err := newRandomPolynomial(f, secret, 4, seeded(t, "poly"))
	require.NoError(t, err)
	assert.Len(t, p.coeffs, 5)
	assert.Equal(t, int64(42), p.evaluate(big.NewInt(0)).Int64())
	for _, c := range p.coeffs {
		assert.True(t, f.Contains(c))
	}

	// The secret is copied, not aliased.
	p.zero()
	assert.Equal(t, int64(42), secret.Int64())
	for _, c := range p.coeffs {
		assert.Zero(t, c.Sign())
	}
}

func TestPolynomial_ConstantOnly(t *testing.T) {
	p, err := newRandomPolynomial(field.Default(), big.NewInt(9), 0, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(9), p.evaluate(big.NewInt(12345)).Int64())
}

func TestPolynomial_RandFailure(t *testing.T) {
	_, err := newRandomPolynomial(field.Default(), big.NewInt(9), 2, bytes.NewReader(nil))
	assert.Error(t, err)
}
