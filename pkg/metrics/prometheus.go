// Package metrics provides Prometheus metrics for the depth chart service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the depth chart service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Roster metrics
	playersAdded   prometheus.Counter
	playersRemoved prometheus.Counter
	playersTotal   prometheus.Gauge

	// Query metrics
	chartQueries        prometheus.Counter
	playersUnderQueries prometheus.Counter
	playerNotFound      prometheus.Counter
	validationFailures  *prometheus.CounterVec

	// Store metrics
	storeLatency *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "depthchart",
		subsystem:        "service",
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
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.playersAdded = auto.NewCounter(m.counterOpts(
		"players_added_total", "Total number of players added to a depth chart"))
	m.playersRemoved = auto.NewCounter(m.counterOpts(
		"players_removed_total", "Total number of players removed from a depth chart"))
	m.playersTotal = auto.NewGauge(m.gaugeOpts(
		"players_total", "Current number of stored players across all charts"))

	m.chartQueries = auto.NewCounter(m.counterOpts(
		"chart_queries_total", "Total number of full depth chart queries"))
	m.playersUnderQueries = auto.NewCounter(m.counterOpts(
		"players_under_queries_total", "Total number of players-under queries"))
	m.playerNotFound = auto.NewCounter(m.counterOpts(
		"player_not_found_total", "Total number of lookups or removals of unknown players"))
	m.validationFailures = auto.NewCounterVec(m.counterOpts(
		"validation_failures_total", "Total number of rejected requests by operation"),
		[]string{"operation"})

	m.storeLatency = auto.NewHistogramVec(m.histogramOpts(
		"store_operation_latency_milliseconds", "Player store operation latency in milliseconds"),
		[]string{"operation"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
	m.rateLimited = auto.NewCounterVec(m.counterOpts(
		"http_rate_limited_total", "Total number of requests rejected by the rate limiter"),
		[]string{"endpoint", "method"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
}

// RecordPlayerAdded increments the players added counter.
func RecordPlayerAdded() {
	globalManager.playersAdded.Inc()
}

// RecordPlayerRemoved increments the players removed counter.
func RecordPlayerRemoved() {
	globalManager.playersRemoved.Inc()
}

// UpdatePlayersTotal sets the number of stored players.
func UpdatePlayersTotal(count int) {
	globalManager.playersTotal.Set(float64(count))
}

// RecordChartQuery increments the full chart query counter.
func RecordChartQuery() {
	globalManager.chartQueries.Inc()
}

// RecordPlayersUnderQuery increments the players-under query counter.
func RecordPlayersUnderQuery() {
	globalManager.playersUnderQueries.Inc()
}

// RecordPlayerNotFound increments the unknown player counter.
func RecordPlayerNotFound() {
	globalManager.playerNotFound.Inc()
}

// RecordValidationFailure counts a request rejected by roster validation.
func RecordValidationFailure(operation string) {
	globalManager.validationFailures.WithLabelValues(operation).Inc()
}

// RecordStoreLatency records the latency of a store operation in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint, method string) {
	globalManager.rateLimited.WithLabelValues(endpoint, method).Inc()
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

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
