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

package rest

import (
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/textshare"
)

// SplitRequest represents a request to split an integer secret.
type SplitRequest struct {
	Secret    string `json:"secret"`
	Shares    int    `json:"shares"`
	Threshold int    `json:"threshold"`
	XMode     string `json:"x_mode,omitempty"`
	Persist   bool   `json:"persist,omitempty"`
}

// SplitResponse represents the shares produced by a split.
type SplitResponse struct {
	Session   string         `json:"session"`
	Threshold int            `json:"threshold"`
	Total     int            `json:"total"`
	Stored    bool           `json:"stored"`
	Shares    []shamir.Share `json:"shares"`
}

// CombineRequest represents a request to reconstruct a secret.
type CombineRequest struct {
	Shares []shamir.Share `json:"shares"`
}

// CombineResponse carries a reconstructed secret in decimal.
type CombineResponse struct {
	Secret string `json:"secret"`
	Shares int    `json:"shares"`
}

// TextSplitRequest represents a request to split a text secret. When Base64
// is set, Secret is decoded from standard base64 first.
type TextSplitRequest struct {
	Secret    string `json:"secret"`
	Base64    bool   `json:"base64,omitempty"`
	Shares    int    `json:"shares"`
	Threshold int    `json:"threshold"`
}

// TextSplitResponse represents the shares of a text secret.
type TextSplitResponse struct {
	Session   string            `json:"session"`
	Threshold int               `json:"threshold"`
	Total     int               `json:"total"`
	Shares    []textshare.Share `json:"shares"`
}

// TextCombineRequest represents a request to reconstruct a text secret.
type TextCombineRequest struct {
	Shares []textshare.Share `json:"shares"`
}

// TextCombineResponse carries a reconstructed text secret. Secret is only
// set when the bytes are valid UTF-8.
type TextCombineResponse struct {
	Secret       string `json:"secret,omitempty"`
	SecretBase64 string `json:"secret_base64"`
}

// ListSessionsResponse lists stored share sets.
type ListSessionsResponse struct {
	Sessions []sharestore.SessionInfo `json:"sessions"`
}

// GetSessionResponse returns the shares of a stored set.
type GetSessionResponse struct {
	Session string         `json:"session"`
	Shares  []shamir.Share `json:"shares"`
}

// DeleteSessionResponse reports a deleted share set.
type DeleteSessionResponse struct {
	Session string `json:"session"`
	Deleted int    `json:"deleted"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
