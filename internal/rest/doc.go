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

// Package rest serves the secret sharing API of the sssd daemon.
//
// # Server Setup
//
//	svc, _ := service.New(&service.Config{Store: store})
//	server, _ := rest.NewServer(&rest.Config{
//	    Addr:        "127.0.0.1:8200",
//	    Service:     svc,
//	    MetricsPath: "/metrics",
//	})
//
//	go server.Start()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
//	defer cancel()
//	server.Stop(ctx)
//
// # API Endpoints
//
// Health:
//   - GET /health - aggregate readiness report
//   - GET /health/live - liveness probe
//   - GET /health/ready - readiness probe
//
// Integer secrets:
//   - POST /api/v1/split - split a secret into shares
//   - POST /api/v1/combine - reconstruct a secret from shares
//
// Text secrets:
//   - POST /api/v1/text/split
//   - POST /api/v1/text/combine
//
// Stored share sets (when a share store is configured):
//   - GET /api/v1/sessions
//   - GET /api/v1/sessions/{id}
//   - POST /api/v1/sessions/{id}/combine
//   - DELETE /api/v1/sessions/{id}
//
// # Request Format
//
// Secrets and coordinates are integers encoded as JSON strings, in decimal
// or with a 0x prefix:
//
//	POST /api/v1/split
//	{"secret": "1234", "shares": 6, "threshold": 3, "x_mode": "sequential"}
//
//	POST /api/v1/combine
//	{"shares": [{"x": "1", "y": "...", "threshold": 3, "total": 6, "session": "..."}]}
//
// # Errors
//
// Errors are returned as JSON:
//
//	{"error": "shamir: insufficient shares", "message": "...", "code": 400}
//
// Invalid parameters, malformed input, duplicate x-coordinates, insufficient
// shares and mixed share sets map to 400. Unknown sessions map to 404 and
// existing sessions to 409. Rate limited clients receive 429.
//
// # Middleware
//
// Every request passes through panic recovery, correlation ID propagation
// (X-Correlation-ID), request logging and Prometheus metrics. API routes are
// additionally rate limited per client and bounded in body size.
package rest
