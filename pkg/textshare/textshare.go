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

// Package textshare splits arbitrary byte strings (passphrases, key files)
// into threshold shares using the prime-field scheme of sssa-golang, which
// shares the secret in 256-bit chunks.
//
// Shares carry the same Threshold/Total/Session metadata as integer shares
// and fail with the same pkg/shamir sentinel errors.
package textshare

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/SSSaaS/sssa-golang"
	"github.com/google/uuid"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

const (
	// MinThreshold is the smallest threshold sssa-golang shares reliably.
	MinThreshold = 2

	// MaxShares bounds n and t.
	MaxShares = 255

	// MaxSecretSize bounds the secret length in bytes.
	MaxSecretSize = 64 * 1024

	// An sssa share is a run of 88-character chunks, one per 256-bit block
	// of the secret: 44 base64 characters of x followed by 44 of y.
	chunkLen = 88
	coordLen = 44
)

// Split divides secret into total shares where any threshold of them
// reconstruct it.
//
// Example:
//
//	shares, err := textshare.Split([]byte("correct horse battery staple"), 3, 5)
//	// Creates 5 shares, any 3 can reconstruct the secret
func Split(secret []byte, threshold, total int) ([]Share, error) {
	return SplitFrom(rand.Reader, secret, threshold, total)
}

// SplitFrom is Split with the session ID drawn from r. The polynomial
// coefficients always come from sssa-golang's own crypto/rand source.
func SplitFrom(r io.Reader, secret []byte, threshold, total int) ([]Share, error) {
	if threshold < MinThreshold {
		return nil, fmt.Errorf("%w: threshold must be at least %d, got %d",
			shamir.ErrInvalidParameters, MinThreshold, threshold)
	}
	if total < threshold {
		return nil, fmt.Errorf("%w: total shares (%d) must be >= threshold (%d)",
			shamir.ErrInvalidParameters, total, threshold)
	}
	if total > MaxShares {
		return nil, fmt.Errorf("%w: total shares cannot exceed %d, got %d",
			shamir.ErrInvalidParameters, MaxShares, total)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret cannot be empty", shamir.ErrSecretOutOfRange)
	}
	if len(secret) > MaxSecretSize {
		return nil, fmt.Errorf("%w: secret exceeds %d bytes", shamir.ErrSecretOutOfRange, MaxSecretSize)
	}

	// sssa trims trailing NUL bytes on combine; hex keeps binary secrets intact.
	raw, err := sssa.Create(threshold, total, hex.EncodeToString(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}

	session, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}
	shares := make([]Share, len(raw))
	for i, s := range raw {
		shares[i] = Share{
			Index:     i + 1,
			Threshold: threshold,
			Total:     total,
			Session:   session.String(),
			Value:     base64.StdEncoding.EncodeToString([]byte(s)),
		}
	}
	return shares, nil
}

// Combine reconstructs the secret from at least Threshold shares of one
// session. Supplying more shares than the threshold is allowed.
func Combine(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: no shares provided", shamir.ErrInsufficientShares)
	}

	first := shares[0]
	seen := make(map[int]struct{}, len(shares))
	seenX := make(map[string]int, len(shares))
	raw := make([]string, len(shares))
	for i, share := range shares {
		if err := share.Validate(); err != nil {
			return nil, fmt.Errorf("invalid share %d: %w", i, err)
		}
		if share.Session != first.Session || share.Threshold != first.Threshold || share.Total != first.Total {
			return nil, fmt.Errorf("%w: share %d does not match share 0", shamir.ErrMixedSessions, i)
		}
		if _, dup := seen[share.Index]; dup {
			return nil, fmt.Errorf("%w: index %d supplied twice", shamir.ErrDuplicateXCoordinate, share.Index)
		}
		seen[share.Index] = struct{}{}

		decoded, err := share.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: share %d is not base64: %v", shamir.ErrInvalidShare, i, err)
		}
		if !sssa.IsValidShare(string(decoded)) {
			return nil, fmt.Errorf("%w: share %d is corrupt", shamir.ErrInvalidShare, i)
		}
		x := xCoordinates(string(decoded))
		if j, dup := seenX[x]; dup {
			return nil, fmt.Errorf("%w: shares %d and %d have the same x-coordinate", shamir.ErrDuplicateXCoordinate, j, i)
		}
		seenX[x] = i
		raw[i] = string(decoded)
	}

	if len(shares) < first.Threshold {
		return nil, fmt.Errorf("%w: need at least %d shares, got %d",
			shamir.ErrInsufficientShares, first.Threshold, len(shares))
	}

	secretHex, err := sssa.Combine(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to combine shares: %w", err)
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("%w: shares do not decode to a secret: %v", shamir.ErrInvalidShare, err)
	}
	return secret, nil
}

// xCoordinates returns the x parts of every chunk of a valid sssa share.
func xCoordinates(share string) string {
	var b strings.Builder
	for i := 0; i+chunkLen <= len(share); i += chunkLen {
		b.WriteString(share[i : i+coordLen])
	}
	return b.String()
}
