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
	"encoding/json"
	"fmt"
	"math/big"
)

// Share is a single point (X, Y) on a sharing polynomial.
//
// Threshold, Total and Session are metadata describing the sharing the point
// belongs to. They are zero for untagged shares (see Interpolate).
type Share struct {
	// X is the non-zero evaluation point
	X *big.Int

	// Y is P(X) mod p
	Y *big.Int

	// Threshold is the number of shares required to reconstruct (t)
	Threshold int

	// Total is the number of shares issued (n)
	Total int

	// Session identifies the sharing instance the share was issued in
	Session string
}

// shareJSON is the wire form of a Share. Coordinates are decimal strings so
// that values wider than 53 bits survive JSON consumers.
type shareJSON struct {
	X         string `json:"x"`
	Y         string `json:"y"`
	Threshold int    `json:"threshold,omitempty"`
	Total     int    `json:"total,omitempty"`
	Session   string `json:"session,omitempty"`
}

// MarshalJSON implements json.Marshaler for Share
func (s Share) MarshalJSON() ([]byte, error) {
	if s.X == nil || s.Y == nil {
		return nil, fmt.Errorf("%w: missing coordinate", ErrInvalidShare)
	}
	return json.Marshal(shareJSON{
		X:         s.X.String(),
		Y:         s.Y.String(),
		Threshold: s.Threshold,
		Total:     s.Total,
		Session:   s.Session,
	})
}

// UnmarshalJSON implements json.Unmarshaler for Share
func (s *Share) UnmarshalJSON(data []byte) error {
	var aux shareJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	x, ok := new(big.Int).SetString(aux.X, 10)
	if !ok {
		return fmt.Errorf("%w: malformed x %q", ErrInvalidShare, aux.X)
	}
	y, ok := new(big.Int).SetString(aux.Y, 10)
	if !ok {
		return fmt.Errorf("%w: malformed y %q", ErrInvalidShare, aux.Y)
	}
	*s = Share{
		X:         x,
		Y:         y,
		Threshold: aux.Threshold,
		Total:     aux.Total,
		Session:   aux.Session,
	}
	return nil
}

// Tagged reports whether the share carries threshold metadata.
func (s Share) Tagged() bool {
	return s.Threshold > 0
}

// Clone returns a deep copy of the share.
func (s Share) Clone() Share {
	c := s
	if s.X != nil {
		c.X = new(big.Int).Set(s.X)
	}
	if s.Y != nil {
		c.Y = new(big.Int).Set(s.Y)
	}
	return c
}

// String returns a short description of the share that omits Y.
func (s Share) String() string {
	return fmt.Sprintf("Share{X: %s, Threshold: %d/%d, Session: %s}",
		abbreviate(s.X), s.Threshold, s.Total, s.Session)
}

// Validate checks the share's metadata. Coordinate range checks need the
// field and happen in the Reconstructor.
func (s Share) Validate() error {
	if s.X == nil || s.Y == nil {
		return fmt.Errorf("%w: missing coordinate", ErrInvalidShare)
	}
	if s.X.Sign() == 0 {
		return fmt.Errorf("%w: x must be non-zero", ErrInvalidShare)
	}
	if s.Threshold < 0 || s.Total < 0 {
		return fmt.Errorf("%w: negative threshold or total", ErrInvalidShare)
	}
	if s.Tagged() && s.Total < s.Threshold {
		return fmt.Errorf("%w: total %d is below threshold %d", ErrInvalidShare, s.Total, s.Threshold)
	}
	return nil
}

// CheckDistinct returns ErrDuplicateXCoordinate if two shares have equal x.
func CheckDistinct(shares []Share) error {
	seen := make(map[string]int, len(shares))
	for i, s := range shares {
		if s.X == nil {
			return fmt.Errorf("%w: share %d has no x-coordinate", ErrInvalidShare, i)
		}
		key := s.X.String()
		if j, ok := seen[key]; ok {
			return fmt.Errorf("%w: shares %d and %d both have x=%s", ErrDuplicateXCoordinate, j, i, abbreviate(s.X))
		}
		seen[key] = i
	}
	return nil
}

func abbreviate(n *big.Int) string {
	if n == nil {
		return "<nil>"
	}
	s := n.String()
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
