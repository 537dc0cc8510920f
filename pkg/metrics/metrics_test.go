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

package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableDisable(t *testing.T) {
	assert.True(t, IsEnabled(), "metrics should be enabled by default")

	Disable()
	assert.False(t, IsEnabled())

	Enable()
	assert.True(t, IsEnabled())
}

func TestRecordOperation(t *testing.T) {
	Enable()
	OperationsTotal.Reset()
	OperationDuration.Reset()

	RecordOperation(OpSplit, StatusSuccess, 0.002)
	RecordOperation(OpSplit, StatusSuccess, 0.004)
	RecordOperation(OpCombine, StatusError, 0.001)

	assert.Equal(t, 2.0, testutil.ToFloat64(OperationsTotal.WithLabelValues(OpSplit, StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(OperationsTotal.WithLabelValues(OpCombine, StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(OperationDuration))
}

func TestRecordOperation_Disabled(t *testing.T) {
	OperationsTotal.Reset()
	Disable()
	defer Enable()

	RecordOperation(OpSplit, StatusSuccess, 0.1)
	assert.Equal(t, 0, testutil.CollectAndCount(OperationsTotal))
}

func TestRecordError(t *testing.T) {
	Enable()
	ErrorsTotal.Reset()

	RecordError(OpCombine, "mixed_sessions")
	RecordError(OpCombine, "mixed_sessions")

	assert.Equal(t, 2.0, testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpCombine, "mixed_sessions")))
}

func TestShareCounters(t *testing.T) {
	Enable()
	issued := testutil.ToFloat64(SharesIssuedTotal)
	combined := testutil.ToFloat64(SharesCombinedTotal)

	AddSharesIssued(5)
	AddSharesIssued(0)
	AddSharesIssued(-3)
	AddSharesCombined(3)

	assert.Equal(t, issued+5, testutil.ToFloat64(SharesIssuedTotal))
	assert.Equal(t, combined+3, testutil.ToFloat64(SharesCombinedTotal))

	SetStoredSessions(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(StoredSessions))
}

func TestHTTPMiddleware(t *testing.T) {
	Enable()
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	r := chi.NewRouter()
	r.Use(HTTPMiddleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/split", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/split", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 3.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/sessions/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/split", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(ActiveRequests))
}

func TestHTTPMiddleware_Unrouted(t *testing.T) {
	Enable()
	HTTPRequestsTotal.Reset()

	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "418")))
}

func TestHandler(t *testing.T) {
	Enable()
	RecordOperation(OpSplit, StatusSuccess, 0.001)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "shamir_operations_total"))
}

func TestResourceCollector(t *testing.T) {
	Enable()
	Goroutines.Set(0)
	ServerUptime.Set(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := StartResourceCollector(ctx, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(Goroutines) > 0
	}, time.Second, 5*time.Millisecond)
	assert.Greater(t, testutil.ToFloat64(MemoryAllocBytes), 0.0)
	c.Stop()
}

func TestNewResourceCollector_DefaultInterval(t *testing.T) {
	c := NewResourceCollector(context.Background(), 0)
	defer c.Stop()
	assert.Equal(t, 15*time.Second, c.interval)
}
