// Package metrics provides Prometheus metrics for the Healthrix scoring engine.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scoring engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring
	scoresComputed     prometheus.Counter
	noScoreResults     prometheus.Counter
	calculationLatency prometheus.Histogram
	employeesScored    prometheus.Gauge
	finalPerformance   prometheus.Histogram

	// Aggregation
	alertsRaised  *prometheus.CounterVec
	distribution  *prometheus.GaugeVec
	leaderboardsN prometheus.Counter

	// Activity ingestion
	activitiesImported prometheus.Counter
	importErrors       *prometheus.CounterVec
	validationErrors   *prometheus.CounterVec

	// Worker pool
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	jobsQueued              prometheus.Counter
	jobsDropped             prometheus.Counter
	queueSize               prometheus.Gauge

	// Sinks and exports
	sinkWrites  *prometheus.CounterVec
	sinkErrors  *prometheus.CounterVec
	sinkLatency *prometheus.HistogramVec
	exports     *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "healthrix",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.scoresComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_computed_total",
		Help:      "Total number of employee-day performance scores computed",
	})

	m.noScoreResults = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "no_score_total",
		Help:      "Total number of employee-day requests without activity rows",
	})

	m.calculationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calculation_latency_milliseconds",
		Help:      "Histogram of single employee-day calculation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.employeesScored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "employees_scored",
		Help:      "Number of employees scored in the most recent batch",
	})

	m.finalPerformance = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "final_performance_percent",
		Help:      "Distribution of final performance percentages",
		Buckets:   []float64{50, 60, 70, 80, 90, 100, 110, 125, 150},
	})

	m.alertsRaised = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "alerts_total",
			Help:      "Total number of alert issues raised by kind",
		},
		[]string{"kind"},
	)

	m.distribution = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "distribution_employees",
			Help:      "Employees per performance bucket in the most recent batch",
		},
		[]string{"bucket"},
	)

	m.leaderboardsN = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboards_total",
		Help:      "Total number of leaderboards produced",
	})

	m.activitiesImported = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "activities_imported_total",
		Help:      "Total number of activity entries accepted by the store",
	})

	m.importErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "import_errors_total",
			Help:      "Total number of rejected import rows by source",
		},
		[]string{"source"},
	)

	m.validationErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "validation_errors_total",
			Help:      "Total number of activity validation failures by field",
		},
		[]string{"field"},
	)

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of scoring workers in the pool",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Worker job processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.jobsQueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_enqueued_total",
		Help:      "Total number of scoring jobs enqueued",
	})

	m.jobsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_rejected_total",
		Help:      "Total number of scoring jobs rejected by the queue",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of pending scoring jobs",
	})

	m.sinkWrites = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sink_writes_total",
			Help:      "Total number of scores written per sink",
		},
		[]string{"sink"},
	)

	m.sinkErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sink_errors_total",
			Help:      "Total number of failed sink writes",
		},
		[]string{"sink"},
	)

	m.sinkLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sink_latency_milliseconds",
			Help:      "Sink write latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"sink"},
	)

	m.exports = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "exports_total",
			Help:      "Total number of report exports by format",
		},
		[]string{"format"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
}

// RecordScoreComputed counts a produced score and observes its final value.
func RecordScoreComputed(finalPerformance float64) {
	globalManager.scoresComputed.Inc()
	globalManager.finalPerformance.Observe(finalPerformance)
}

// RecordNoScore counts an employee-day that had no activity rows.
func RecordNoScore() {
	globalManager.noScoreResults.Inc()
}

// RecordCalculationLatency records a single calculation latency in milliseconds.
func RecordCalculationLatency(latencyMs float64) {
	globalManager.calculationLatency.Observe(latencyMs)
}

// UpdateEmployeesScored sets the size of the latest batch.
func UpdateEmployeesScored(count int) {
	globalManager.employeesScored.Set(float64(count))
}

// RecordAlert counts one alert issue of the given kind.
func RecordAlert(kind string) {
	globalManager.alertsRaised.WithLabelValues(kind).Inc()
}

// UpdateDistribution sets the employee count for a performance bucket.
func UpdateDistribution(bucket string, count int) {
	globalManager.distribution.WithLabelValues(bucket).Set(float64(count))
}

// RecordLeaderboard counts a produced leaderboard.
func RecordLeaderboard() {
	globalManager.leaderboardsN.Inc()
}

// RecordActivitiesImported adds n accepted activity entries.
func RecordActivitiesImported(n int) {
	globalManager.activitiesImported.Add(float64(n))
}

// RecordImportError counts a rejected import row.
func RecordImportError(source string) {
	globalManager.importErrors.WithLabelValues(source).Inc()
}

// RecordValidationError counts a validation failure on the named field.
func RecordValidationError(field string) {
	globalManager.validationErrors.WithLabelValues(field).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordJobEnqueued counts an accepted scoring job.
func RecordJobEnqueued() {
	globalManager.jobsQueued.Inc()
}

// RecordJobRejected counts a job the queue refused.
func RecordJobRejected() {
	globalManager.jobsDropped.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordSinkWrite counts n scores written to sink and observes latency.
func RecordSinkWrite(sink string, n int, latencyMs float64) {
	globalManager.sinkWrites.WithLabelValues(sink).Add(float64(n))
	globalManager.sinkLatency.WithLabelValues(sink).Observe(latencyMs)
}

// RecordSinkError counts a failed sink write.
func RecordSinkError(sink string) {
	globalManager.sinkErrors.WithLabelValues(sink).Inc()
}

// RecordExport counts a report export in the given format.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in text exposition format for the
// node_exporter textfile collector. Batch runs have no scrape endpoint.
func WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty textfile path", ErrTextfile)
	}
	if err := prometheus.WriteToTextfile(path, GetRegistry()); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	return nil
}
