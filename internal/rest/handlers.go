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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/health"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
)

// HandlerContext holds the dependencies of the HTTP handlers.
type HandlerContext struct {
	service *service.SharingService
	health  *health.Checker
	version string
}

// NewHandlerContext creates a handler context. A nil checker is replaced
// by one with no registered checks.
func NewHandlerContext(svc *service.SharingService, checker *health.Checker, version string) *HandlerContext {
	if checker == nil {
		checker = health.NewChecker()
		checker.MarkStarted()
	}
	return &HandlerContext{service: svc, health: checker, version: version}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func sessionParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if err := validation.ValidateSessionID(id); err != nil {
		return "", err
	}
	return id, nil
}

// HealthHandler handles GET /health. It answers 503 when any readiness
// check is unhealthy.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	report := h.health.Report(r.Context(), h.version)
	statusCode := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, report, statusCode)
}

// LivenessHandler handles GET /health/live.
func (h *HandlerContext) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.health.Live(r.Context()), http.StatusOK)
}

// ReadinessHandler handles GET /health/ready. Degraded still serves traffic.
func (h *HandlerContext) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results := h.health.Ready(r.Context())
	status := health.AggregateStatus(results)
	statusCode := http.StatusOK
	if status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, health.Report{
		Status:  status,
		Version: h.version,
		Uptime:  h.health.Uptime().String(),
		Checks:  results,
	}, statusCode)
}

// SplitHandler handles POST /api/v1/split.
func (h *HandlerContext) SplitHandler(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	secret, err := validation.ParseInteger(req.Secret)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := validation.ValidateCount("shares", req.Shares); err != nil {
		handleError(w, err)
		return
	}
	if err := validation.ValidateCount("threshold", req.Threshold); err != nil {
		handleError(w, err)
		return
	}

	result, err := h.service.Split(r.Context(), service.SplitRequest{
		Secret:    secret,
		Shares:    req.Shares,
		Threshold: req.Threshold,
		XMode:     shamir.XMode(req.XMode),
		Persist:   req.Persist,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, SplitResponse{
		Session:   result.Session,
		Threshold: req.Threshold,
		Total:     req.Shares,
		Stored:    result.Stored,
		Shares:    result.Shares,
	}, http.StatusCreated)
}

// CombineHandler handles POST /api/v1/combine.
func (h *HandlerContext) CombineHandler(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	secret, err := h.service.Combine(r.Context(), req.Shares)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, CombineResponse{Secret: secret.String(), Shares: len(req.Shares)}, http.StatusOK)
}

// TextSplitHandler handles POST /api/v1/text/split.
func (h *HandlerContext) TextSplitHandler(w http.ResponseWriter, r *http.Request) {
	var req TextSplitRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	secret := []byte(req.Secret)
	if req.Base64 {
		decoded, err := base64.StdEncoding.DecodeString(req.Secret)
		if err != nil {
			handleError(w, fmt.Errorf("%w: secret is not valid base64", ErrInvalidRequest))
			return
		}
		secret = decoded
	}

	shares, err := h.service.SplitText(r.Context(), service.TextSplitRequest{
		Secret:    secret,
		Shares:    req.Shares,
		Threshold: req.Threshold,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, TextSplitResponse{
		Session:   shares[0].Session,
		Threshold: req.Threshold,
		Total:     req.Shares,
		Shares:    shares,
	}, http.StatusCreated)
}

// TextCombineHandler handles POST /api/v1/text/combine.
func (h *HandlerContext) TextCombineHandler(w http.ResponseWriter, r *http.Request) {
	var req TextCombineRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	secret, err := h.service.CombineText(r.Context(), req.Shares)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := TextCombineResponse{SecretBase64: base64.StdEncoding.EncodeToString(secret)}
	if utf8.Valid(secret) {
		resp.Secret = string(secret)
	}
	writeJSON(w, resp, http.StatusOK)
}

// ListSessionsHandler handles GET /api/v1/sessions.
func (h *HandlerContext) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.Sessions(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, ListSessionsResponse{Sessions: infos}, http.StatusOK)
}

// GetSessionHandler handles GET /api/v1/sessions/{id}.
func (h *HandlerContext) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		handleError(w, err)
		return
	}
	shares, err := h.service.LoadSession(r.Context(), session)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, GetSessionResponse{Session: session, Shares: shares}, http.StatusOK)
}

// CombineSessionHandler handles POST /api/v1/sessions/{id}/combine.
func (h *HandlerContext) CombineSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		handleError(w, err)
		return
	}
	shares, err := h.service.LoadSession(r.Context(), session)
	if err != nil {
		handleError(w, err)
		return
	}
	secret, err := h.service.Combine(r.Context(), shares)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, CombineResponse{Secret: secret.String(), Shares: len(shares)}, http.StatusOK)
}

// DeleteSessionHandler handles DELETE /api/v1/sessions/{id}.
func (h *HandlerContext) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := sessionParam(r)
	if err != nil {
		handleError(w, err)
		return
	}
	n, err := h.service.DeleteSession(r.Context(), session)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, DeleteSessionResponse{Session: session, Deleted: n}, http.StatusOK)
}
