package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	require.NotNil(t, metrics)

	metrics.RecordResolution("ok", 20*time.Millisecond, 12, 2)
	metrics.RecordProblem("NOT_FOUND", "error")
	metrics.RecordRepositoryRequest("index", "metadata", "ok", time.Millisecond)
	metrics.RecordCacheHit("metadata")
	metrics.RecordCacheMiss("metadata")

	families, err := registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	for _, name := range []string{
		"depresolve_resolutions_total",
		"depresolve_resolution_duration_seconds",
		"depresolve_graph_nodes",
		"depresolve_problems_total",
		"depresolve_evictions_total",
		"depresolve_repository_requests_total",
		"depresolve_repository_request_duration_seconds",
		"depresolve_cache_hits_total",
		"depresolve_cache_misses_total",
	} {
		assert.True(t, names[name], name)
	}
}

func TestMetricsRecordValues(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordResolution("ok", time.Millisecond, 3, 1)
	metrics.RecordResolution("failed", time.Millisecond, 1, 0)
	metrics.RecordResolution("ok", time.Millisecond, 5, 2)
	metrics.RecordCacheHit("metadata")
	metrics.RecordCacheHit("metadata")

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.EvictionsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("metadata")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.RecordResolution("ok", time.Second, 1, 0)
		metrics.RecordProblem("CONFLICT", "error")
		metrics.RecordRepositoryRequest("r", "versions", "ok", time.Second)
		metrics.RecordCacheHit("c")
		metrics.RecordCacheMiss("c")
	})
}
