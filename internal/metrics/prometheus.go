package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

// PrometheusMetrics contains all Prometheus metrics of the analyzer
type PrometheusMetrics struct {
	// Parsing metrics
	LogsParsedTotal      *prometheus.CounterVec
	LogParseDuration     *prometheus.HistogramVec
	EventsExtractedTotal *prometheus.CounterVec

	// Run metrics
	RunsAnalyzedTotal   *prometheus.CounterVec
	RunAnalysisDuration prometheus.Histogram
	RunThroughput       prometheus.Gauge
	RunBlocks           prometheus.Gauge
	BlockLatency        prometheus.Histogram

	// Storage metrics
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec
	DatabaseConnections       prometheus.Gauge

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates all metrics and registers them with reg
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		LogsParsedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchlogs_logs_parsed_total",
				Help: "Total number of replica and client logs parsed",
			},
			[]string{"role", "status"},
		),

		LogParseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "benchlogs_log_parse_duration_seconds",
				Help:    "Time spent parsing a single log file",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"role"},
		),

		EventsExtractedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchlogs_events_extracted_total",
				Help: "Total number of replica log events extracted",
			},
			[]string{"kind"},
		),

		RunsAnalyzedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchlogs_runs_analyzed_total",
				Help: "Total number of benchmark runs analyzed",
			},
			[]string{"status"},
		),

		RunAnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "benchlogs_run_analysis_duration_seconds",
				Help:    "Time spent analyzing a benchmark run",
				Buckets: prometheus.DefBuckets,
			},
		),

		RunThroughput: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "benchlogs_run_throughput_blocks_per_second",
				Help: "Consensus block throughput of the last analyzed run",
			},
		),

		RunBlocks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "benchlogs_run_blocks",
				Help: "Blocks after warm-up in the last analyzed run",
			},
		),

		BlockLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "benchlogs_block_latency_seconds",
				Help:    "Request to execution latency of analyzed blocks",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			},
		),

		DatabaseOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchlogs_database_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "table", "status"},
		),

		DatabaseOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "benchlogs_database_operation_duration_seconds",
				Help:    "Duration of database operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),

		DatabaseConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "benchlogs_database_connections",
				Help: "Number of open database connections",
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchlogs_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "benchlogs_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ApplicationUptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "benchlogs_application_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchlogs_component_health",
				Help: "Health status of application components (1 = healthy, 0 = unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "benchlogs_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "benchlogs_goroutines",
				Help: "Current number of goroutines",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordLogParsed records one parsed log file
func (m *PrometheusMetrics) RecordLogParsed(role string, duration time.Duration, err error) {
	m.LogsParsedTotal.WithLabelValues(role, status(err)).Inc()
	m.LogParseDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// RecordEventsExtracted adds the events of one kind found in a log
func (m *PrometheusMetrics) RecordEventsExtracted(kind models.EventKind, count int) {
	m.EventsExtractedTotal.WithLabelValues(kind.String()).Add(float64(count))
}

// RecordRunAnalyzed records the outcome of one run analysis
func (m *PrometheusMetrics) RecordRunAnalyzed(duration time.Duration, err error) {
	m.RunsAnalyzedTotal.WithLabelValues(status(err)).Inc()
	m.RunAnalysisDuration.Observe(duration.Seconds())
}

// RecordRunResult publishes the headline numbers of an analyzed run
func (m *PrometheusMetrics) RecordRunResult(throughput float64, latencies []float64) {
	m.RunThroughput.Set(throughput)
	m.RunBlocks.Set(float64(len(latencies)))
	for _, l := range latencies {
		m.BlockLatency.Observe(l)
	}
}

// RecordDatabaseOperation records a database operation
func (m *PrometheusMetrics) RecordDatabaseOperation(operation, table, status string, duration time.Duration) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, table, status).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// UpdateDatabaseConnections updates the database connections metric
func (m *PrometheusMetrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the application uptime metric
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateComponentHealth updates the health status of a component
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateMemoryUsage updates the memory usage metric
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count metric
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}
