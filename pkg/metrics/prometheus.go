// Package metrics provides Prometheus metrics for the copa bracket simulator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets spans 0.05ms to about 400ms. Latencies are recorded
// in milliseconds.
var defaultLatencyBuckets = prometheus.ExponentialBuckets(0.05, 2, 14) //nolint:gochecknoglobals // read-only bucket layout

// Manager manages all Prometheus metrics for the copa service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Simulation metrics
	simulationsTotal    prometheus.Counter
	simulationLatency   prometheus.Histogram
	simulationsRejected *prometheus.CounterVec
	matchesResolved     *prometheus.CounterVec
	predictionLookups   *prometheus.CounterVec
	predictionFallbacks prometheus.Counter

	// Batch metrics
	batchesStarted     prometheus.Counter
	batchRunsCompleted prometheus.Counter
	batchRunErrors     prometheus.Counter
	leaderboardTeams   prometheus.Gauge
	leaderboardRuns    prometheus.Gauge

	// Repository metrics
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// Stream and archive metrics
	streamBroadcasts *prometheus.CounterVec
	archiveWrites    prometheus.Counter
	archiveErrors    prometheus.Counter

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "copa",
		subsystem:      "simulator",
		latencyBuckets: defaultLatencyBuckets,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name joins the optional prefix with a metric name.
func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.simulationsTotal = auto.NewCounter(m.counterOpts("simulations_total",
		"Total number of completed tournament simulations"))
	m.simulationLatency = auto.NewHistogram(m.histogramOpts("simulation_latency_milliseconds",
		"Histogram of full tournament simulation latency in milliseconds", m.latencyBuckets))
	m.simulationsRejected = auto.NewCounterVec(m.counterOpts("simulations_rejected_total",
		"Simulations refused before any match was played, by reason"), []string{"reason"})
	m.matchesResolved = auto.NewCounterVec(m.counterOpts("matches_resolved_total",
		"Matches resolved by knockout stage"), []string{"stage"})
	m.predictionLookups = auto.NewCounterVec(m.counterOpts("prediction_lookups_total",
		"Prediction lookups by source (direct, reversed, fallback)"), []string{"source"})
	m.predictionFallbacks = auto.NewCounter(m.counterOpts("prediction_fallbacks_total",
		"Lookups with no stored prediction in either order (data completeness gap)"))

	m.batchesStarted = auto.NewCounter(m.counterOpts("batches_started_total",
		"Total number of Monte Carlo batches accepted"))
	m.batchRunsCompleted = auto.NewCounter(m.counterOpts("batch_runs_completed_total",
		"Total number of batch runs completed by workers"))
	m.batchRunErrors = auto.NewCounter(m.counterOpts("batch_run_errors_total",
		"Total number of batch runs that failed"))
	m.leaderboardTeams = auto.NewGauge(m.gaugeOpts("leaderboard_teams",
		"Number of teams present in the title odds leaderboard"))
	m.leaderboardRuns = auto.NewGauge(m.gaugeOpts("leaderboard_runs",
		"Number of simulations folded into the title odds leaderboard"))

	m.repositoryUpdateLatency = auto.NewHistogram(m.histogramOpts("repository_update_latency_milliseconds",
		"Tally store update latency in milliseconds", m.latencyBuckets))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds",
		"Tally store query latency in milliseconds", m.latencyBuckets))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Current number of batch runs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Queue utilization ratio (size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total",
		"Total number of runs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total",
		"Total number of runs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Total number of rejected enqueues"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Current number of batch workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Worker processing latency per run in milliseconds", m.latencyBuckets))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Total number of worker processing errors"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets), []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = auto.NewCounterVec(m.counterOpts("http_rate_limited_total",
		"Requests rejected by the rate limiter"), []string{"endpoint"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.streamBroadcasts = auto.NewCounterVec(m.counterOpts("stream_broadcasts_total",
		"Server-sent events broadcast by event name"), []string{"event"})
	m.archiveWrites = auto.NewCounter(m.counterOpts("archive_writes_total",
		"Simulations written to the SQL archive"))
	m.archiveErrors = auto.NewCounter(m.counterOpts("archive_errors_total",
		"Failed SQL archive operations"))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordSimulation increments the simulations counter and observes latency.
func RecordSimulation(latencyMs float64) {
	globalManager.simulationsTotal.Inc()
	globalManager.simulationLatency.Observe(latencyMs)
}

// RecordSimulationRejected counts a simulation refused before kickoff.
func RecordSimulationRejected(reason string) {
	globalManager.simulationsRejected.WithLabelValues(reason).Inc()
}

// RecordMatchResolved counts a resolved match for a stage label.
func RecordMatchResolved(stage string) {
	globalManager.matchesResolved.WithLabelValues(stage).Inc()
}

// RecordPredictionLookup counts a prediction lookup by source.
func RecordPredictionLookup(source string) {
	globalManager.predictionLookups.WithLabelValues(source).Inc()
}

// RecordPredictionFallback counts a lookup that found no stored prediction.
func RecordPredictionFallback() {
	globalManager.predictionFallbacks.Inc()
}

// RecordBatchStarted increments the accepted batches counter.
func RecordBatchStarted() {
	globalManager.batchesStarted.Inc()
}

// RecordBatchRunCompleted increments the completed batch runs counter.
func RecordBatchRunCompleted() {
	globalManager.batchRunsCompleted.Inc()
}

// RecordBatchRunError increments the failed batch runs counter.
func RecordBatchRunError() {
	globalManager.batchRunErrors.Inc()
}

// UpdateLeaderboard sets the leaderboard team and run gauges.
func UpdateLeaderboard(teams, runs int) {
	globalManager.leaderboardTeams.Set(float64(teams))
	globalManager.leaderboardRuns.Set(float64(runs))
}

// RecordRepositoryUpdateLatency observes a tally store write.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency observes a tally store read.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
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

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

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

// RecordStreamBroadcast counts a server-sent event.
func RecordStreamBroadcast(event string) {
	globalManager.streamBroadcasts.WithLabelValues(event).Inc()
}

// RecordArchiveWrite counts a simulation persisted to the archive.
func RecordArchiveWrite() {
	globalManager.archiveWrites.Inc()
}

// RecordArchiveError counts a failed archive operation.
func RecordArchiveError() {
	globalManager.archiveErrors.Inc()
}

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

// PredictionFallbacks returns the global fallback counter for assertions.
func PredictionFallbacks() prometheus.Counter {
	return globalManager.predictionFallbacks
}

// PredictionLookups returns the global lookup counter vector for assertions.
func PredictionLookups() *prometheus.CounterVec {
	return globalManager.predictionLookups
}
