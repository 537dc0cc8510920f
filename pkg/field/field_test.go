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

package field

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func small(t *testing.T, p int64) *Field {
	t.Helper()
	f, err := New(big.NewInt(p))
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		modulus *big.Int
		wantErr bool
	}{
		{"nil modulus", nil, true},
		{"too small", big.NewInt(2), true},
		{"composite", big.NewInt(91), true},
		{"small prime", big.NewInt(97), false},
		{"mersenne 127", M127, false},
		{"mersenne 521", M521, false},
		{"secp256k1 prime", P256K1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.modulus)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidModulus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, f.Modulus().Cmp(tt.modulus))
		})
	}
}

func TestNew_CopiesModulus(t *testing.T) {
	p := big.NewInt(101)
	f, err := New(p)
	require.NoError(t, err)

	p.SetInt64(7)
	assert.Equal(t, int64(101), f.Modulus().Int64())
}

func TestParseModulus(t *testing.T) {
	tests := []struct {
		in      string
		want    *big.Int
		wantErr bool
	}{
		{"", DefaultModulus, false},
		{"m127", M127, false},
		{"M521", M521, false},
		{"secp256k1", P256K1, false},
		{"0x65", big.NewInt(101), false},
		{"101", big.NewInt(101), false},
		{"not-a-number", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseModulus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidModulus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(tt.want))
		})
	}
}

func TestArithmetic(t *testing.T) {
	f := small(t, 97)

	assert.Equal(t, int64(3), f.Add(big.NewInt(50), big.NewInt(50)).Int64())
	assert.Equal(t, int64(96), f.Sub(big.NewInt(1), big.NewInt(2)).Int64())
	assert.Equal(t, int64(3), f.Mul(big.NewInt(10), big.NewInt(10)).Int64())
	assert.Equal(t, int64(92), f.Neg(big.NewInt(5)).Int64())
	assert.Equal(t, int64(0), f.Neg(big.NewInt(0)).Int64())
	assert.Equal(t, int64(5), f.Reduce(big.NewInt(-92)).Int64())
}

func TestInv(t *testing.T) {
	f := small(t, 97)

	for a := int64(1); a < 97; a++ {
		inv, err := f.Inv(big.NewInt(a))
		require.NoError(t, err)
		assert.Equal(t, int64(1), f.Mul(big.NewInt(a), inv).Int64(), "a=%d", a)
	}

	_, err := f.Inv(big.NewInt(0))
	assert.ErrorIs(t, err, ErrNotInvertible)

	_, err = f.Inv(big.NewInt(97))
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestDiv(t *testing.T) {
	f := small(t, 97)

	q, err := f.Div(big.NewInt(10), big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, int64(2), q.Int64())

	_, err = f.Div(big.NewInt(10), big.NewInt(0))
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestOperationsDoNotMutateInputs(t *testing.T) {
	f := small(t, 97)
	a := big.NewInt(150)
	b := big.NewInt(7)

	_ = f.Add(a, b)
	_ = f.Sub(a, b)
	_ = f.Mul(a, b)
	_ = f.Neg(a)
	_, _ = f.Inv(a)

	assert.Equal(t, int64(150), a.Int64())
	assert.Equal(t, int64(7), b.Int64())
}

func TestRandom(t *testing.T) {
	f := small(t, 5)

	seen := make(map[int64]bool)
	for i := 0; i < 500; i++ {
		n, err := f.Random(rand.Reader)
		require.NoError(t, err)
		require.True(t, f.Contains(n))
		seen[n.Int64()] = true
	}
	assert.Len(t, seen, 5, "all field elements should appear")
}

func TestRandomNonZero(t *testing.T) {
	f := small(t, 3)

	for i := 0; i < 200; i++ {
		n, err := f.RandomNonZero(rand.Reader)
		require.NoError(t, err)
		assert.NotZero(t, n.Sign())
	}
}

func TestRandom_ReaderError(t *testing.T) {
	f := Default()
	_, err := f.Random(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	f := small(t, 101) // signed window is [-50, 50]

	for s := int64(-50); s <= 50; s++ {
		enc, err := f.Encode(big.NewInt(s))
		require.NoError(t, err)
		require.True(t, f.Contains(enc))
		assert.Equal(t, s, f.Decode(enc).Int64())
	}

	_, err := f.Encode(big.NewInt(51))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.Encode(big.NewInt(-51))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.Encode(nil)
	assert.ErrorIs(t, err, ErrOutOfRange)

	assert.Equal(t, int64(50), f.MaxSecret().Int64())
}

func TestDefault(t *testing.T) {
	f := Default()
	assert.Equal(t, 256, f.BitLen())

	secret := new(big.Int).Lsh(big.NewInt(1), 200)
	enc, err := f.Encode(secret)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Decode(enc).Cmp(secret))
}
