// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// Metrics Collector
// =============================================================================

// Collector holds every Prometheus vector ArgusLM exports, grouped by
// domain: HTTP surface, provider calls, the throttle manager, the
// benchmark orchestrator, the alert evaluator, the model-discovery
// cache, and the persistence boundary.
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Provider call metrics
	providerCallsTotal   *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
	providerTTFTSeconds  *prometheus.HistogramVec
	providerTokensTotal  *prometheus.CounterVec

	// Throttle manager metrics
	throttleWaitSeconds *prometheus.HistogramVec
	throttleQueueDepth  *prometheus.GaugeVec

	// Benchmark orchestrator metrics
	benchmarkTasksTotal  *prometheus.CounterVec
	benchmarkRunDuration *prometheus.HistogramVec

	// Alert evaluator metrics
	alertsEmittedTotal *prometheus.CounterVec

	// Model-discovery cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Persistence boundary metrics
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec
	dbQueryDuration   *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector registers every vector under namespace and returns the
// Collector wired to record against them.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP metrics
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// Provider call metrics
	c.providerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Total number of provider invocations",
		},
		[]string{"provider_kind", "model_id", "status"},
	)

	c.providerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Provider invocation total latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider_kind", "model_id"},
	)

	c.providerTTFTSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_ttft_seconds",
			Help:      "Time to first streamed token in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider_kind", "model_id"},
	)

	c.providerTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_tokens_total",
			Help:      "Total tokens exchanged with a provider",
		},
		[]string{"provider_kind", "model_id", "direction"}, // direction: input, output
	)

	// Throttle manager metrics
	c.throttleWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "throttle_wait_seconds",
			Help:      "Time spent waiting to acquire a throttle slot",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
		},
		[]string{"tier"}, // tier: global, provider, model
	)

	c.throttleQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "throttle_queue_depth",
			Help:      "Calls currently waiting to acquire a throttle slot",
		},
		[]string{"tier"},
	)

	// Benchmark orchestrator metrics
	c.benchmarkTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "benchmark_tasks_total",
			Help:      "Total number of benchmark tasks executed",
		},
		[]string{"status"}, // status: ok, error
	)

	c.benchmarkRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "benchmark_run_duration_seconds",
			Help:      "Wall-clock duration of a completed benchmark run",
			Buckets:   []float64{1, 5, 15, 30, 60, 180, 600, 1800},
		},
		[]string{"status"},
	)

	// Alert evaluator metrics
	c.alertsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts created by the evaluator",
		},
		[]string{"rule_type"},
	)

	// Model-discovery cache metrics
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Persistence boundary metrics
	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// HTTP metric recording
// =============================================================================

// RecordHTTPRequest records one completed HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// Provider call metric recording
// =============================================================================

// RecordProviderCall records one completed provider invocation —
// status is "success" or "error"; ttft is zero for a non-streaming call.
func (c *Collector) RecordProviderCall(providerKind, modelID, status string, duration, ttft time.Duration, inputTokens, outputTokens int) {
	c.providerCallsTotal.WithLabelValues(providerKind, modelID, status).Inc()
	c.providerCallDuration.WithLabelValues(providerKind, modelID).Observe(duration.Seconds())
	if ttft > 0 {
		c.providerTTFTSeconds.WithLabelValues(providerKind, modelID).Observe(ttft.Seconds())
	}
	c.providerTokensTotal.WithLabelValues(providerKind, modelID, "input").Add(float64(inputTokens))
	c.providerTokensTotal.WithLabelValues(providerKind, modelID, "output").Add(float64(outputTokens))
}

// =============================================================================
// Throttle manager metric recording
// =============================================================================

// RecordThrottleWait records how long a call waited to acquire a
// slot at the given tier ("global", "provider", or "model").
func (c *Collector) RecordThrottleWait(tier string, wait time.Duration) {
	c.throttleWaitSeconds.WithLabelValues(tier).Observe(wait.Seconds())
}

// SetThrottleQueueDepth reports how many calls are currently waiting
// at the given tier.
func (c *Collector) SetThrottleQueueDepth(tier string, depth int) {
	c.throttleQueueDepth.WithLabelValues(tier).Set(float64(depth))
}

// =============================================================================
// Benchmark orchestrator metric recording
// =============================================================================

// RecordBenchmarkTask records one completed benchmark task — status
// is "ok" or "error".
func (c *Collector) RecordBenchmarkTask(status string) {
	c.benchmarkTasksTotal.WithLabelValues(status).Inc()
}

// RecordBenchmarkRun records a completed run's total wall-clock
// duration — status is "completed" or "failed".
func (c *Collector) RecordBenchmarkRun(status string, duration time.Duration) {
	c.benchmarkRunDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// =============================================================================
// Alert evaluator metric recording
// =============================================================================

// RecordAlertEmitted records one alert created by the evaluator.
func (c *Collector) RecordAlertEmitted(ruleType string) {
	c.alertsEmittedTotal.WithLabelValues(ruleType).Inc()
}

// =============================================================================
// Cache metric recording
// =============================================================================

// RecordCacheHit records a cache hit for cacheType.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for cacheType.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// Persistence boundary metric recording
// =============================================================================

// RecordDBConnections reports the current pool occupancy.
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// RecordDBQuery records one query's duration.
func (c *Collector) RecordDBQuery(database, operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// =============================================================================
// Helpers
// =============================================================================

// statusCode buckets an HTTP status into its class (2xx, 3xx, ...).
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
