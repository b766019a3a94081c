package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP host and the engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	solveDuration  *prometheus.HistogramVec
	solveNodes     prometheus.Histogram
	solveBackjumps prometheus.Counter
	unplaced       *prometheus.CounterVec
	repairTotal    *prometheus.CounterVec
	repairChanges  *prometheus.CounterVec
	dedupShared    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "result_cache_latency_seconds",
		Help:    "Latency for result cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "result_cache_write_seconds",
		Help:    "Latency for result cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_hits_total",
		Help: "Total result cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_misses_total",
		Help: "Total result cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Wall time of timetable solves by outcome",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	solveNodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solve_nodes",
		Help:    "Search nodes visited per solve",
		Buckets: prometheus.ExponentialBuckets(10, 4, 9),
	})

	solveBackjumps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_solve_backjumps_total",
		Help: "Total conflict-directed backjumps",
	})

	unplaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_unplaced_sessions_total",
		Help: "Sessions left unplaced by reason code",
	}, []string{"code"})

	repairTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_repairs_total",
		Help: "Enforcement runs by outcome",
	}, []string{"outcome"})

	repairChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_repair_changes_total",
		Help: "Repair changes by kind",
	}, []string{"kind"})

	dedupShared := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_solve_shared_total",
		Help: "Generate requests served by an in-flight solve of the same fingerprint",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		dbQueryDuration, solveDuration, solveNodes, solveBackjumps, unplaced, repairTotal, repairChanges,
		dedupShared, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		solveDuration:   solveDuration,
		solveNodes:      solveNodes,
		solveBackjumps:  solveBackjumps,
		unplaced:        unplaced,
		repairTotal:     repairTotal,
		repairChanges:   repairChanges,
		dedupShared:     dedupShared,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a result cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveSolve records the outcome and search effort of one solve.
func (m *MetricsService) ObserveSolve(res *scheduler.Result, duration time.Duration) {
	if m == nil || res == nil {
		return
	}
	m.solveDuration.WithLabelValues(string(res.Outcome)).Observe(duration.Seconds())
	m.solveNodes.Observe(float64(res.Stats.NodesVisited))
	m.solveBackjumps.Add(float64(res.Stats.Backjumps))
	for _, u := range res.Unplaced {
		m.unplaced.WithLabelValues(u.Code).Inc()
	}
}

// ObserveRepair records the outcome of one enforcement run.
func (m *MetricsService) ObserveRepair(res *scheduler.RepairResult) {
	if m == nil || res == nil {
		return
	}
	m.repairTotal.WithLabelValues(string(res.Outcome)).Inc()
	for _, c := range res.Changes {
		m.repairChanges.WithLabelValues(string(c.Kind)).Inc()
	}
}

// RecordSharedSolve counts a generate request deduplicated onto an in-flight solve.
func (m *MetricsService) RecordSharedSolve() {
	if m == nil {
		return
	}
	m.dedupShared.Inc()
}
