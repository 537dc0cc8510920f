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
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrRequestTooLarge = errors.New("request body too large")
	ErrInternalError   = errors.New("internal server error")
	ErrServiceRequired = errors.New("sharing service is required")
)

// writeError writes an error response to the client.
func writeError(w http.ResponseWriter, err error, statusCode int) {
	writeErrorWithMessage(w, err, "", statusCode)
}

// writeErrorWithMessage writes an error response with a custom message.
func writeErrorWithMessage(w http.ResponseWriter, err error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:   err.Error(),
		Message: message,
		Code:    statusCode,
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		log.Printf("Failed to encode error response: %v", encErr)
	}
}

// mapErrorToStatusCode maps errors to HTTP status codes.
func mapErrorToStatusCode(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sharestore.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, sharestore.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrStoreDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, validation.ErrMalformedInput),
		errors.Is(err, shamir.ErrInvalidParameters),
		errors.Is(err, shamir.ErrDuplicateXCoordinate),
		errors.Is(err, shamir.ErrInsufficientShares),
		errors.Is(err, shamir.ErrSecretOutOfRange),
		errors.Is(err, shamir.ErrInvalidShare),
		errors.Is(err, shamir.ErrMixedSessions),
		errors.Is(err, sharestore.ErrUntagged):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleError maps err to a status code and writes the response. Internal
// errors are not echoed to the client.
func handleError(w http.ResponseWriter, err error) {
	statusCode := mapErrorToStatusCode(err)
	if statusCode == http.StatusInternalServerError {
		writeError(w, ErrInternalError, statusCode)
		return
	}
	writeError(w, err, statusCode)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}
