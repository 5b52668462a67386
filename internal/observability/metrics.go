// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// records nothing.
type Metrics struct {
	// Fetch metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Refresh metrics
	RefreshesTotal        *prometheus.CounterVec
	RefreshDuration       prometheus.Histogram
	ProjectsLoaded        prometheus.Gauge
	LastSuccessfulRefresh prometheus.Gauge

	// Storage metrics
	SnapshotsStored prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics registers all metrics with reg, or with the default registerer
// when reg is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pow_tracker"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetches_total",
			Help:      "Total number of record fetches by kind and status",
		}, []string{"kind", "status"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Record fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of cache lookups by result",
		}, []string{"result"}),

		RefreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of project list refreshes by status",
		}, []string{"status"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Project list refresh duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ProjectsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "projects_loaded",
			Help:      "Number of projects in the last loaded list",
		}),
		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful refresh",
		}),

		SnapshotsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "snapshots_stored_total",
			Help:      "Total number of metric snapshots persisted",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordFetch records one source fetch.
func (m *Metrics) RecordFetch(kind string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FetchesTotal.WithLabelValues(kind, status).Inc()
	m.FetchDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordCache records a cache lookup result: hit, stale or miss.
func (m *Metrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// RecordRefresh records a completed refresh.
func (m *Metrics) RecordRefresh(projects int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(duration.Seconds())
	if err != nil {
		m.RefreshesTotal.WithLabelValues("error").Inc()
		return
	}
	m.RefreshesTotal.WithLabelValues("success").Inc()
	m.ProjectsLoaded.Set(float64(projects))
	m.LastSuccessfulRefresh.SetToCurrentTime()
}

// RecordSnapshots adds n persisted snapshots.
func (m *Metrics) RecordSnapshots(n int) {
	if m == nil {
		return
	}
	m.SnapshotsStored.Add(float64(n))
}

// RecordHTTP records one API response.
func (m *Metrics) RecordHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
