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

package textshare

import (
	"encoding/base64"
	"fmt"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

// Share is one piece of a text secret.
type Share struct {
	// Index is the share number (1 to N)
	Index int `json:"index"`

	// Threshold is the minimum number of shares required to reconstruct (t)
	Threshold int `json:"threshold"`

	// Total is the total number of shares created (n)
	Total int `json:"total"`

	// Session identifies the sharing instance
	Session string `json:"session"`

	// Value is the sssa share string, base64 encoded
	Value string `json:"value"`
}

// Bytes returns the raw sssa share string
func (s Share) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(s.Value)
}

// String returns a description of the share that omits its value
func (s Share) String() string {
	return fmt.Sprintf("TextShare{Index: %d, Threshold: %d/%d, Session: %s}",
		s.Index, s.Threshold, s.Total, s.Session)
}

// Validate checks the share's metadata
func (s Share) Validate() error {
	if s.Threshold < MinThreshold {
		return fmt.Errorf("%w: threshold %d is below %d", shamir.ErrInvalidShare, s.Threshold, MinThreshold)
	}
	if s.Total < s.Threshold {
		return fmt.Errorf("%w: total %d is below threshold %d", shamir.ErrInvalidShare, s.Total, s.Threshold)
	}
	if s.Index < 1 || s.Index > s.Total {
		return fmt.Errorf("%w: index %d outside [1, %d]", shamir.ErrInvalidShare, s.Index, s.Total)
	}
	if s.Value == "" {
		return fmt.Errorf("%w: share value is empty", shamir.ErrInvalidShare)
	}
	return nil
}
