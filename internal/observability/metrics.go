package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of one process. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	GraphNodes         prometheus.Histogram
	ProblemsTotal      *prometheus.CounterVec
	EvictionsTotal     prometheus.Counter

	RepositoryRequestsTotal   *prometheus.CounterVec
	RepositoryRequestDuration *prometheus.HistogramVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depresolve_resolutions_total",
				Help: "Total number of dependency resolutions",
			},
			[]string{"status"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "depresolve_resolution_duration_seconds",
				Help:    "Dependency resolution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		GraphNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "depresolve_graph_nodes",
				Help:    "Number of nodes in resolved dependency graphs",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		ProblemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depresolve_problems_total",
				Help: "Total number of resolution problems by reason",
			},
			[]string{"reason", "level"},
		),
		EvictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "depresolve_evictions_total",
				Help: "Total number of evicted module versions",
			},
		),
		RepositoryRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depresolve_repository_requests_total",
				Help: "Total number of repository lookups",
			},
			[]string{"repository", "operation", "status"},
		),
		RepositoryRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depresolve_repository_request_duration_seconds",
				Help:    "Repository lookup duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
			},
			[]string{"repository", "operation"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depresolve_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depresolve_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.GraphNodes,
		m.ProblemsTotal,
		m.EvictionsTotal,
		m.RepositoryRequestsTotal,
		m.RepositoryRequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// RecordResolution records one finished resolution.
func (m *Metrics) RecordResolution(status string, duration time.Duration, nodes int, evictions int) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(status).Inc()
	m.ResolutionDuration.Observe(duration.Seconds())
	m.GraphNodes.Observe(float64(nodes))
	m.EvictionsTotal.Add(float64(evictions))
}

func (m *Metrics) RecordProblem(reason string, level string) {
	if m == nil {
		return
	}
	m.ProblemsTotal.WithLabelValues(reason, level).Inc()
}

// RecordRepositoryRequest records one repository call.
func (m *Metrics) RecordRepositoryRequest(repository string, operation string, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RepositoryRequestsTotal.WithLabelValues(repository, operation, status).Inc()
	m.RepositoryRequestDuration.WithLabelValues(repository, operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}
