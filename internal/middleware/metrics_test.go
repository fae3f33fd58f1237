package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaplan/wayfare/backend/internal/middleware"
)

// TestMetricsHandler_countsRequests verifies that each request increments the
// requests-total counter with the method and final status code as labels.
func TestMetricsHandler_countsRequests(t *testing.T) {
	// promauto registers on the default registry, so the namespace must be
	// unique per test to avoid duplicate-registration panics.
	m := middleware.NewMetrics("wayfare_test_counts")

	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/experiences", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/experiences", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(2), promtestutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "404")))
	assert.Equal(t, float64(0), promtestutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "404")))
}

// TestMetricsHandler_observesDuration verifies that request latency is
// recorded in the histogram under the request method.
func TestMetricsHandler_observesDuration(t *testing.T) {
	m := middleware.NewMetrics("wayfare_test_durations")

	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/bookings", nil))

	count := promtestutil.CollectAndCount(m.RequestDuration)
	assert.Equal(t, 1, count)
}
