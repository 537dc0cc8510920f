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

import "errors"

var (
	// ErrInvalidParameters is returned when n, t or the x-coordinates are not usable.
	ErrInvalidParameters = errors.New("shamir: invalid parameters")

	// ErrDuplicateXCoordinate is returned when two shares have the same x.
	ErrDuplicateXCoordinate = errors.New("shamir: duplicate x-coordinate")

	// ErrInsufficientShares is returned for empty share sets or sets smaller
	// than the threshold the shares were tagged with.
	ErrInsufficientShares = errors.New("shamir: insufficient shares")

	// ErrSecretOutOfRange is returned when a secret does not fit the field.
	ErrSecretOutOfRange = errors.New("shamir: secret out of range")

	// ErrInvalidShare is returned for shares with missing or out-of-field coordinates.
	ErrInvalidShare = errors.New("shamir: invalid share")

	// ErrMixedSessions is returned when tagged shares disagree on session or threshold.
	ErrMixedSessions = errors.New("shamir: shares from different sharings")
)
