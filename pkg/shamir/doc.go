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

// Package shamir implements Shamir's threshold Secret Sharing over a prime field.
//
// A secret s is hidden as the constant term of a random polynomial of degree
// t-1. Evaluating the polynomial at n distinct non-zero points yields n shares;
// any t of them determine the polynomial and therefore s, while t-1 or fewer
// are consistent with every possible secret.
//
// # Mathematical Foundation
//
//	P(x) = s + a1*x + a2*x^2 + ... + a(t-1)*x^(t-1)   (mod p)
//
// The coefficients a1..a(t-1) are drawn uniformly from GF(p). Reconstruction
// evaluates the Lagrange form at x = 0:
//
//	s = sum_i y_i * prod_{j != i} x_j / (x_j - x_i)   (mod p)
//
// Division is multiplication by a modular inverse, so the result is exact.
//
// # Usage Example
//
//	gen, err := shamir.NewGenerator(nil) // default field, crypto/rand
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	shares, err := gen.Generate(6, 3, big.NewInt(1234))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rec, _ := shamir.NewReconstructor(nil)
//	secret, err := rec.Reconstruct(shares[:3])
//
// # Secret Domain
//
// Secrets are signed integers in [-(p-1)/2, (p-1)/2]. Negative values are
// stored as p - |s| and reconstruction returns the centered lift, so every
// secret in the window round-trips exactly.
//
// # Threshold Metadata
//
// Shares carry the threshold, total and session they were issued with. This
// metadata is not part of the cryptographic value; it lets Reconstruct refuse
// share sets that are too small or mixed, which the bare interpolation cannot
// detect on its own. Interpolate performs the raw computation without checks.
//
// # Constraints
//
//   - 1 <= t <= n < p
//   - x-coordinates are non-zero and pairwise distinct within a sharing
//   - Random coefficients are zeroed once shares have been produced
package shamir
