// Package metrics provides Prometheus metrics for the era quiz service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Quiz business metrics
	sessionsStarted     prometheus.Counter
	sessionsCompleted   prometheus.Counter
	answersRecorded     *prometheus.CounterVec
	transitionsRejected *prometheus.CounterVec
	overallRate         prometheus.Histogram
	resultsLatency      prometheus.Histogram

	// Candidate pool metrics
	candidatePoolSize     prometheus.Gauge
	candidatesExcluded    *prometheus.CounterVec
	candidateFetchLatency prometheus.Histogram
	candidateFetchErrors  prometheus.Counter

	// Store metrics
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	storeRecords prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eraquiz",
		subsystem:        "quiz",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounter(m.counter("sessions_started_total", "Total number of quiz sessions started"))
	m.sessionsCompleted = auto.NewCounter(m.counter("sessions_completed_total", "Total number of quiz sessions that reached results"))
	m.answersRecorded = auto.NewCounterVec(m.counter("answers_recorded_total", "Answers recorded, by verdict"), []string{"recognized"})
	m.transitionsRejected = auto.NewCounterVec(m.counter("transitions_rejected_total", "Session transitions rejected as invalid, by action"), []string{"action"})
	m.overallRate = auto.NewHistogram(m.histogram("overall_rate_percent", "Overall recognition rate of completed sessions",
		prometheus.LinearBuckets(0, 10, 11)))
	m.resultsLatency = auto.NewHistogram(m.histogram("results_compute_milliseconds", "Time to compute session results", m.histogramBuckets))

	m.candidatePoolSize = auto.NewGauge(m.gauge("candidate_pool_size", "Usable figures in the current candidate pool"))
	m.candidatesExcluded = auto.NewCounterVec(m.counter("candidates_excluded_total", "Candidates dropped while building the pool, by reason"), []string{"reason"})
	m.candidateFetchLatency = auto.NewHistogram(m.histogram("candidate_fetch_milliseconds", "Candidate source fetch latency", m.histogramBuckets))
	m.candidateFetchErrors = auto.NewCounter(m.counter("candidate_fetch_errors_total", "Failed candidate source fetches"))

	m.storeLatency = auto.NewHistogramVec(m.histogram("store_operation_milliseconds", "Session store latency, by operation", m.histogramBuckets), []string{"op"})
	m.storeErrors = auto.NewCounterVec(m.counter("store_errors_total", "Session store failures, by operation"), []string{"op"})
	m.storeRecords = auto.NewGauge(m.gauge("store_records", "Sessions held by the store"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})
	m.errorRateByType = auto.NewCounterVec(m.counter("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total", "Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))
}

// RecordSessionStarted increments the started sessions counter.
func RecordSessionStarted() { globalManager.sessionsStarted.Inc() }

// RecordSessionCompleted counts a completed session and its overall rate.
func RecordSessionCompleted(overallRate int) {
	globalManager.sessionsCompleted.Inc()
	globalManager.overallRate.Observe(float64(overallRate))
}

// RecordAnswer counts a recorded answer.
func RecordAnswer(recognized bool) {
	globalManager.answersRecorded.WithLabelValues(strconv.FormatBool(recognized)).Inc()
}

// RecordTransitionRejected counts an invalid transition attempt.
func RecordTransitionRejected(action string) {
	globalManager.transitionsRejected.WithLabelValues(action).Inc()
}

// RecordResultsLatency records results computation time in milliseconds.
func RecordResultsLatency(latencyMs float64) { globalManager.resultsLatency.Observe(latencyMs) }

// UpdateCandidatePoolSize sets the usable pool size.
func UpdateCandidatePoolSize(size int) { globalManager.candidatePoolSize.Set(float64(size)) }

// RecordCandidatesExcluded adds n excluded candidates for reason.
func RecordCandidatesExcluded(reason string, n int) {
	if n > 0 {
		globalManager.candidatesExcluded.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordCandidateFetchLatency records a candidate fetch in milliseconds.
func RecordCandidateFetchLatency(latencyMs float64) {
	globalManager.candidateFetchLatency.Observe(latencyMs)
}

// RecordCandidateFetchError counts a failed candidate fetch.
func RecordCandidateFetchError() { globalManager.candidateFetchErrors.Inc() }

// RecordStoreLatency records a store operation in milliseconds.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) { globalManager.storeErrors.WithLabelValues(op).Inc() }

// UpdateStoreRecords sets the number of stored sessions.
func UpdateStoreRecords(count int) { globalManager.storeRecords.Set(float64(count)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
