package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest("GET", "/api/v1/enrollments/:id", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest("POST", "/api/v1/enrollments", 201, 40*time.Millisecond)
	m.ObserveRemoteFetch("student", "ok", 5*time.Millisecond)
	m.ObserveRemoteFetch("course", "not_found", 5*time.Millisecond)
	m.ObserveStoreOperation("save", nil, 2*time.Millisecond)
	m.ObserveStoreOperation("find", errors.New("boom"), 4*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	m.FetchStarted(1)
	m.FetchStarted(2)
	m.FetchFinished(1, nil)
	m.FetchFinished(2, nil)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.EqualValues(t, 2, snap.RemoteFetchesTotal)
	assert.EqualValues(t, 1, snap.RemoteFailuresTotal)
	assert.EqualValues(t, 2, snap.StoreOperationsTotal)
	assert.InDelta(t, 3, snap.AverageStoreOpDurationMs, 0.001)
	assert.EqualValues(t, 2, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.EqualValues(t, 2, snap.BulkInFlightHighWaterMark)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveRemoteFetch("course", "invalid_id", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `remote_fetches_total{entity="course",outcome="invalid_id"} 1`)
	assert.Contains(t, rec.Body.String(), "bulk_fetch_in_flight")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.ObserveRemoteFetch("student", "ok", time.Millisecond)
	m.FetchStarted(1)
	m.FetchFinished(1, nil)
	assert.Zero(t, m.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
