// Package metrics provides Prometheus metrics for the formfill pipeline and backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pipeline
	controlsScanned prometheus.Counter
	resolutions     *prometheus.CounterVec
	passOutcomes    *prometheus.CounterVec
	passDuration    prometheus.Histogram
	saveResults     *prometheus.CounterVec
	captures        *prometheus.CounterVec

	// Collaborators
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	draftLatency prometheus.Histogram
	draftErrors  prometheus.Counter
	answersTotal prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "formfill",
		subsystem:        "autofill",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.controlsScanned = m.counter("controls_scanned_total", "Total number of logical form controls discovered")
	m.resolutions = m.counterVec("resolutions_total", "Resolved answers by winning source", "source")
	m.passOutcomes = m.counterVec("pass_outcomes_total", "Per-control outcomes of autofill passes", "outcome")
	m.passDuration = m.histogram("pass_duration_milliseconds", "Duration of a full autofill pass in milliseconds")
	m.saveResults = m.counterVec("save_results_total", "Results of save pass upserts", "result")
	m.captures = m.counterVec("observer_captures_total", "User interactions captured by the change observer", "result")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Answer store call latency in milliseconds", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Answer store call failures", "op")
	m.draftLatency = m.histogram("draft_latency_milliseconds", "Drafting call latency in milliseconds")
	m.draftErrors = m.counter("draft_errors_total", "Drafting call failures")
	m.answersTotal = m.gauge("answers_total", "Number of answer records held by the store")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Current number of pending capture writes")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capture queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of capture writes enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of capture writes dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected capture writes")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of capture writer workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Capture write latency in milliseconds")
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of failed capture writes")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordControlsScanned adds n discovered controls.
func RecordControlsScanned(n int) {
	globalManager.controlsScanned.Add(float64(n))
}

// RecordResolution counts a resolved answer by its source tier.
func RecordResolution(source string) {
	globalManager.resolutions.WithLabelValues(source).Inc()
}

// RecordPassOutcome counts one control outcome (resolved, unresolved, unmatched, skipped, failed).
func RecordPassOutcome(outcome string) {
	globalManager.passOutcomes.WithLabelValues(outcome).Inc()
}

// RecordPassDuration records the duration of an autofill pass.
func RecordPassDuration(latencyMs float64) {
	globalManager.passDuration.Observe(latencyMs)
}

// RecordSaveResult counts a save pass result (saved, updated, failed, skipped).
func RecordSaveResult(result string) {
	globalManager.saveResults.WithLabelValues(result).Inc()
}

// RecordCapture counts an observer capture (queued, dropped, stored, failed).
func RecordCapture(result string) {
	globalManager.captures.WithLabelValues(result).Inc()
}

// RecordStoreLatency records an answer store call.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts an answer store failure.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordDraftLatency records a drafting call.
func RecordDraftLatency(latencyMs float64) {
	globalManager.draftLatency.Observe(latencyMs)
}

// RecordDraftError counts a drafting failure.
func RecordDraftError() {
	globalManager.draftErrors.Inc()
}

// UpdateAnswersTotal sets the number of stored answers.
func UpdateAnswersTotal(count int) {
	globalManager.answersTotal.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// Since returns milliseconds elapsed since start, for the latency helpers.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
