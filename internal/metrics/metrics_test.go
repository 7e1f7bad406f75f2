package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStore(t *testing.T) {
	m := New()

	m.ObserveStore("departments", "insert", nil)
	m.ObserveStore("departments", "insert", nil)
	m.ObserveStore("departments", "insert", errors.New("down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeOps.WithLabelValues("departments", "insert", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("departments", "insert", ResultError)))
}

func TestObserveRenumber(t *testing.T) {
	m := New()

	m.ObserveRenumber(3, 5, nil)
	m.ObserveRenumber(9, 9, errors.New("tx aborted"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.renumberRuns.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renumberRuns.WithLabelValues(ResultError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.renumberedRows.WithLabelValues("departments")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.renumberedRows.WithLabelValues("members")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveStore("members", "delete", nil)
		m.AllocationRetried("members")
		m.ObserveRenumber(1, 1, nil)
		m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.AllocationRetried("members")
	m.ObserveHTTP(http.MethodGet, "/admin/members", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `jcc_id_allocation_retries_total{table="members"} 1`), body)
	assert.Contains(t, body, "jcc_http_request_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}
