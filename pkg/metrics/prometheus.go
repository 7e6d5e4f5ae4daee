// Package metrics provides Prometheus metrics for the inningscast service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Result labels shared by the auth counters.
const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

// scoreBuckets spans realistic first-innings totals.
var scoreBuckets = []float64{60, 80, 100, 120, 140, 160, 180, 200, 220, 240, 260, 280}

// Manager owns every collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// Identity
	registrations       *prometheus.CounterVec
	logins              *prometheus.CounterVec
	sessionRejections   prometheus.Counter
	passwordHashLatency prometheus.Histogram
	usersTotal          prometheus.Gauge

	// Inference
	predictions       prometheus.Counter
	predictionErrors  prometheus.Counter
	predictionLatency prometheus.Histogram
	predictedScore    prometheus.Histogram

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "inningscast",
		subsystem:        "web",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_endpoint_total",
		Help: "Error responses by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_type_total",
		Help: "Error responses by error type and severity",
	}, []string{"error_type", "severity"})

	m.registrations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "registrations_total",
		Help: "Registration attempts by result",
	}, []string{"result"})

	m.logins = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	m.sessionRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "session_rejections_total",
		Help: "Protected requests rejected for a missing or invalid session cookie",
	})

	m.passwordHashLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "password_hash_latency_milliseconds",
		Help:    "Time spent hashing or verifying a password",
		Buckets: m.histogramBuckets,
	})

	m.usersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "users_total",
		Help: "Number of registered users",
	})

	m.predictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "predictions_total",
		Help: "Successful score predictions",
	})

	m.predictionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "prediction_errors_total",
		Help: "Model invocations that returned an error",
	})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "prediction_latency_milliseconds",
		Help:    "Model inference latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.predictedScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "predicted_score",
		Help:    "Distribution of raw predicted first-innings scores",
		Buckets: scoreBuckets,
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "memory_usage_bytes",
		Help: "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "goroutines",
		Help: "Number of live goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name:    "gc_pause_milliseconds",
		Help:    "Average GC pause in milliseconds",
		Buckets: m.histogramBuckets,
	})
}

// RecordHTTPRequest counts one request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes one request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint counts an error response for endpoint.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByType counts an error response by type.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if m.enabled {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordRegistration counts a registration attempt.
func (m *Manager) RecordRegistration(result string) {
	if m.enabled {
		m.registrations.WithLabelValues(result).Inc()
	}
}

// RecordLogin counts a login attempt.
func (m *Manager) RecordLogin(result string) {
	if m.enabled {
		m.logins.WithLabelValues(result).Inc()
	}
}

// RecordSessionRejected counts a rejected protected request.
func (m *Manager) RecordSessionRejected() {
	if m.enabled {
		m.sessionRejections.Inc()
	}
}

// RecordPasswordHashLatency observes hashing or verification cost.
func (m *Manager) RecordPasswordHashLatency(latencyMs float64) {
	if m.enabled {
		m.passwordHashLatency.Observe(latencyMs)
	}
}

// UpdateUsersTotal sets the registered user gauge.
func (m *Manager) UpdateUsersTotal(count int) {
	if m.enabled {
		m.usersTotal.Set(float64(count))
	}
}

// RecordPrediction counts a successful prediction and its raw score.
func (m *Manager) RecordPrediction(score float64) {
	if m.enabled {
		m.predictions.Inc()
		m.predictedScore.Observe(score)
	}
}

// RecordPredictionError counts a failed model call.
func (m *Manager) RecordPredictionError() {
	if m.enabled {
		m.predictionErrors.Inc()
	}
}

// RecordPredictionLatency observes model latency.
func (m *Manager) RecordPredictionLatency(latencyMs float64) {
	if m.enabled {
		m.predictionLatency.Observe(latencyMs)
	}
}

// UpdateSystemMemoryUsage sets the heap gauge.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if m.enabled {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if m.enabled {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime observes the average GC pause.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Package-level helpers delegate to the global manager.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

func RecordErrorByType(errorType, severity string) {
	globalManager.RecordErrorByType(errorType, severity)
}

func RecordRegistration(result string) { globalManager.RecordRegistration(result) }

func RecordLogin(result string) { globalManager.RecordLogin(result) }

func RecordSessionRejected() { globalManager.RecordSessionRejected() }

func RecordPasswordHashLatency(latencyMs float64) {
	globalManager.RecordPasswordHashLatency(latencyMs)
}

func UpdateUsersTotal(count int) { globalManager.UpdateUsersTotal(count) }

func RecordPrediction(score float64) { globalManager.RecordPrediction(score) }

func RecordPredictionError() { globalManager.RecordPredictionError() }

func RecordPredictionLatency(latencyMs float64) { globalManager.RecordPredictionLatency(latencyMs) }

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.UpdateSystemMemoryUsage(bytes) }

func UpdateSystemGoroutineCount(count int) { globalManager.UpdateSystemGoroutineCount(count) }

func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval reports how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Global returns the process-wide manager.
func Global() *Manager {
	return globalManager
}
