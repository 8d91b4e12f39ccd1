// Package metrics provides Prometheus metrics for the powerstream service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ingestion and correlation
	eventsIngested       *prometheus.CounterVec
	pointsIgnored        *prometheus.CounterVec
	samplesStored        prometheus.Counter
	toolChangesFinalized prometheus.Counter
	instances            prometheus.Gauge

	// Broadcast
	subscribers      prometheus.Gauge
	replayEvents     prometheus.Histogram
	replayLatency    prometheus.Histogram
	fanoutDeliveries prometheus.Counter
	slowSubscribers  prometheus.Counter

	// Queue
	queueSize              *prometheus.GaugeVec
	queueCapacity          *prometheus.GaugeVec
	queueUtilization       *prometheus.GaugeVec
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by the recorder functions

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "powerstream",
		subsystem:        "broadcast",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	sizeBuckets := prometheus.ExponentialBuckets(1, 4, 10)

	m.eventsIngested = auto.NewCounterVec(m.counterOpts("events_ingested_total", "Inbound events applied to instance state"), []string{"kind"})
	m.pointsIgnored = auto.NewCounterVec(m.counterOpts("points_ignored_total", "Notification points dropped by the ingestion adapter"), []string{"reason"})
	m.samplesStored = auto.NewCounter(m.counterOpts("samples_stored_total", "Telemetry samples appended to the sample store"))
	m.toolChangesFinalized = auto.NewCounter(m.counterOpts("tool_changes_finalized_total", "Tool-change records moved into history"))
	m.instances = auto.NewGauge(m.gaugeOpts("instances", "Instances with state in the registry"))

	m.subscribers = auto.NewGauge(m.gaugeOpts("subscribers", "Currently attached subscribers"))
	m.replayEvents = auto.NewHistogram(m.histogramOpts("replay_events", "Events replayed to a new subscriber", sizeBuckets))
	m.replayLatency = auto.NewHistogram(m.histogramOpts("replay_latency_milliseconds", "Time spent building a replay snapshot", m.histogramBuckets))
	m.fanoutDeliveries = auto.NewCounter(m.counterOpts("fanout_deliveries_total", "Live events handed to subscriber buffers"))
	m.slowSubscribers = auto.NewCounter(m.counterOpts("slow_subscribers_total", "Subscribers disconnected for exceeding their buffer"))

	m.queueSize = auto.NewGaugeVec(m.gaugeOpts("queue_size", "Events waiting in an ingestion queue shard"), []string{"shard"})
	m.queueCapacity = auto.NewGaugeVec(m.gaugeOpts("queue_capacity", "Capacity of an ingestion queue shard"), []string{"shard"})
	m.queueUtilization = auto.NewGaugeVec(m.gaugeOpts("queue_utilization", "Fill ratio of an ingestion queue shard"), []string{"shard"})
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Events enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Events dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueue attempts"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.histogramBuckets))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of ingestion workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Time to apply one event in milliseconds", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Events a worker failed to apply"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds", "Latency of failed operations", m.histogramBuckets), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets))
}

// Ingestion and correlation.

// RecordEventIngested counts an applied inbound event by kind.
func RecordEventIngested(kind string) {
	globalManager.eventsIngested.WithLabelValues(kind).Inc()
}

// RecordPointIgnored counts a notification point the adapter dropped.
func RecordPointIgnored(reason string) {
	globalManager.pointsIgnored.WithLabelValues(reason).Inc()
}

// RecordSampleStored counts a stored telemetry sample.
func RecordSampleStored() {
	globalManager.samplesStored.Inc()
}

// RecordToolChangeFinalized counts a record moved into history.
func RecordToolChangeFinalized() {
	globalManager.toolChangesFinalized.Inc()
}

// UpdateInstanceCount sets the number of known instances.
func UpdateInstanceCount(count int) {
	globalManager.instances.Set(float64(count))
}

// Broadcast.

// AddSubscribers adjusts the attached subscriber gauge by delta.
func AddSubscribers(delta int) {
	globalManager.subscribers.Add(float64(delta))
}

// RecordReplay records the size and build time of one replay.
func RecordReplay(events int, latencyMs float64) {
	globalManager.replayEvents.Observe(float64(events))
	globalManager.replayLatency.Observe(latencyMs)
}

// RecordFanout counts live deliveries to subscriber buffers.
func RecordFanout(deliveries int) {
	globalManager.fanoutDeliveries.Add(float64(deliveries))
}

// RecordSlowSubscriber counts a subscriber dropped for overflow.
func RecordSlowSubscriber() {
	globalManager.slowSubscribers.Inc()
}

// Queue.

// UpdateQueueSize sets the size of one queue shard.
func UpdateQueueSize(shard string, size int) {
	globalManager.queueSize.WithLabelValues(shard).Set(float64(size))
}

// UpdateQueueCapacity sets the capacity of one queue shard.
func UpdateQueueCapacity(shard string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(shard).Set(float64(capacity))
}

// UpdateQueueUtilization sets the fill ratio of one queue shard.
func UpdateQueueUtilization(shard string, utilization float64) {
	globalManager.queueUtilization.WithLabelValues(shard).Set(utilization)
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

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
