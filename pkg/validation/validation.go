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

// Package validation checks user-supplied input at the CLI and REST
// boundaries before it reaches the sharing core.
package validation

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

// ErrMalformedInput is returned when user input cannot be parsed.
var ErrMalformedInput = errors.New("validation: malformed input")

const (
	// MaxIntegerDigits bounds the length of integer literals accepted from
	// users. A 521-bit modulus needs 157 decimal digits.
	MaxIntegerDigits = 512

	// MaxShareCount bounds n so a single request cannot ask for an
	// unbounded allocation.
	MaxShareCount = 1 << 16

	// maxLogLength bounds sanitized strings written to logs
	maxLogLength = 1000
)

// ParseInteger parses a signed integer in decimal, or in hex/octal/binary
// with a 0x/0o/0b prefix. Underscore separators are accepted after a prefix.
func ParseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty integer", ErrMalformedInput)
	}
	if len(s) > MaxIntegerDigits {
		return nil, fmt.Errorf("%w: integer longer than %d characters", ErrMalformedInput, MaxIntegerDigits)
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrMalformedInput, SanitizeForLog(s))
	}
	return n, nil
}

// ParseCount parses a share count or threshold named by what. Text that is
// not a number is malformed; a number outside [1, MaxShareCount] is an
// invalid parameter.
func ParseCount(what, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrMalformedInput, what, SanitizeForLog(s))
	}
	return n, ValidateCount(what, n)
}

// ValidateCount checks that a share count or threshold is within [1, MaxShareCount].
func ValidateCount(what string, n int) error {
	if n < 1 || n > MaxShareCount {
		return fmt.Errorf("%w: %s must be between 1 and %d, got %d", shamir.ErrInvalidParameters, what, MaxShareCount, n)
	}
	return nil
}

// ValidateSessionID checks that id is a canonical UUID string. Session IDs
// become directory names in the share store, so nothing else is accepted.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: session ID cannot be empty", ErrMalformedInput)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: session ID %q is not a UUID", ErrMalformedInput, SanitizeForLog(id))
	}
	if parsed.String() != id {
		return fmt.Errorf("%w: session ID must be in canonical lowercase form", ErrMalformedInput)
	}
	return nil
}

// SanitizeForLog sanitizes a string for safe logging (prevents log injection).
func SanitizeForLog(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	if len(s) > maxLogLength {
		s = s[:maxLogLength] + "...[truncated]"
	}
	return s
}
