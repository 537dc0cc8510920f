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

// Package field implements exact arithmetic over a prime field GF(p).
//
// All values are *big.Int and every operation returns a freshly allocated
// result reduced into [0, p). The modulus is configurable so callers can size
// the field to the secrets they protect.
package field

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

var (
	// ErrInvalidModulus is returned when a modulus is nil, too small or not prime.
	ErrInvalidModulus = errors.New("field: invalid modulus")

	// ErrNotInvertible is returned when inverting zero.
	ErrNotInvertible = errors.New("field: element not invertible")

	// ErrOutOfRange is returned when a value lies outside the field or the signed window.
	ErrOutOfRange = errors.New("field: value out of range")
)

// primalityRounds is the number of Miller-Rabin rounds used to validate moduli.
const primalityRounds = 32

// Well-known moduli accepted by ParseModulus.
var (
	// P256K1 is the secp256k1 base field prime 2^256 - 2^32 - 977.
	P256K1 = mustParse("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)

	// M127 is the Mersenne prime 2^127 - 1.
	M127 = mersenne(127)

	// M521 is the Mersenne prime 2^521 - 1.
	M521 = mersenne(521)

	// DefaultModulus is used when no modulus is configured.
	DefaultModulus = P256K1
)

var aliases = map[string]*big.Int{
	"p256k1":    P256K1,
	"secp256k1": P256K1,
	"m127":      M127,
	"m521":      M521,
}

// Field is a prime field GF(p). It is immutable and safe for concurrent use.
type Field struct {
	p    *big.Int
	half *big.Int // (p-1)/2
}

// New returns a field over the given prime modulus. The modulus is copied.
func New(modulus *big.Int) (*Field, error) {
	if modulus == nil {
		return nil, fmt.Errorf("%w: modulus is nil", ErrInvalidModulus)
	}
	if modulus.Cmp(big.NewInt(3)) < 0 {
		return nil, fmt.Errorf("%w: modulus must be at least 3, got %s", ErrInvalidModulus, modulus)
	}
	if !modulus.ProbablyPrime(primalityRounds) {
		return nil, fmt.Errorf("%w: %s is not prime", ErrInvalidModulus, modulus)
	}
	p := new(big.Int).Set(modulus)
	half := new(big.Int).Sub(p, big.NewInt(1))
	half.Rsh(half, 1)
	return &Field{p: p, half: half}, nil
}

// Default returns the field over DefaultModulus.
func Default() *Field {
	f, err := New(DefaultModulus)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseModulus parses a modulus given as an alias (p256k1, m127, m521),
// a 0x-prefixed hexadecimal number or a decimal number. An empty string
// yields DefaultModulus.
func ParseModulus(s string) (*big.Int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return new(big.Int).Set(DefaultModulus), nil
	}
	if p, ok := aliases[s]; ok {
		return new(big.Int).Set(p), nil
	}
	p, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%w: cannot parse %q", ErrInvalidModulus, s)
	}
	return p, nil
}

// Modulus returns a copy of p.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.p)
}

// BitLen returns the bit length of p.
func (f *Field) BitLen() int {
	return f.p.BitLen()
}

// Contains reports whether 0 <= a < p.
func (f *Field) Contains(a *big.Int) bool {
	return a != nil && a.Sign() >= 0 && a.Cmp(f.p) < 0
}

// Reduce returns a mod p in [0, p).
func (f *Field) Reduce(a *big.Int) *big.Int {
	return new(big.Int).Mod(a, f.p)
}

// Add returns (a + b) mod p.
func (f *Field) Add(a, b *big.Int) *big.Int {
	r := new(big.Int).Add(a, b)
	return r.Mod(r, f.p)
}

// Sub returns (a - b) mod p.
func (f *Field) Sub(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return r.Mod(r, f.p)
}

// Mul returns (a * b) mod p.
func (f *Field) Mul(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Mod(r, f.p)
}

// Neg returns -a mod p.
func (f *Field) Neg(a *big.Int) *big.Int {
	r := new(big.Int).Neg(a)
	return r.Mod(r, f.p)
}

// Inv returns the multiplicative inverse of a.
func (f *Field) Inv(a *big.Int) (*big.Int, error) {
	r := f.Reduce(a)
	if r.Sign() == 0 {
		return nil, ErrNotInvertible
	}
	return r.ModInverse(r, f.p), nil
}

// Div returns a / b in the field.
func (f *Field) Div(a, b *big.Int) (*big.Int, error) {
	inv, err := f.Inv(b)
	if err != nil {
		return nil, err
	}
	return f.Mul(a, inv), nil
}

// Random returns a uniformly distributed element of [0, p) read from r.
// Candidates are masked to the bit length of p and rejected when >= p, so
// there is no modulo bias.
func (f *Field) Random(r io.Reader) (*big.Int, error) {
	bitLen := f.p.BitLen()
	buf := make([]byte, (bitLen+7)/8)
	topBits := uint(bitLen % 8)
	if topBits == 0 {
		topBits = 8
	}
	n := new(big.Int)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("field: failed to read randomness: %w", err)
		}
		buf[0] &= byte(0xff >> (8 - topBits))
		n.SetBytes(buf)
		if n.Cmp(f.p) < 0 {
			return n, nil
		}
	}
}

// RandomNonZero returns a uniformly distributed element of [1, p).
func (f *Field) RandomNonZero(r io.Reader) (*big.Int, error) {
	for {
		n, err := f.Random(r)
		if err != nil {
			return nil, err
		}
		if n.Sign() != 0 {
			return n, nil
		}
	}
}

// Encode maps a signed integer into the field. Values must lie in the
// signed window [-(p-1)/2, (p-1)/2]; negatives map to p - |s|.
func (f *Field) Encode(s *big.Int) (*big.Int, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil value", ErrOutOfRange)
	}
	if new(big.Int).Abs(s).Cmp(f.half) > 0 {
		return nil, fmt.Errorf("%w: |value| exceeds %s", ErrOutOfRange, f.half)
	}
	return f.Reduce(s), nil
}

// Decode is the inverse of Encode: it returns the centered lift of a,
// i.e. a if a <= (p-1)/2 and a - p otherwise.
func (f *Field) Decode(a *big.Int) *big.Int {
	r := f.Reduce(a)
	if r.Cmp(f.half) > 0 {
		r.Sub(r, f.p)
	}
	return r
}

// MaxSecret returns (p-1)/2, the largest magnitude Encode accepts.
func (f *Field) MaxSecret() *big.Int {
	return new(big.Int).Set(f.half)
}

func mersenne(exp uint) *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), exp)
	return p.Sub(p, big.NewInt(1))
}

func mustParse(s string, base int) *big.Int {
	p, ok := new(big.Int).SetString(s, base)
	if !ok {
		panic("field: bad constant " + s)
	}
	return p
}
