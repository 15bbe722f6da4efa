package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forecast_etl"

// Metrics holds the Prometheus counters and histograms for the batch tools.
type Metrics struct {
	FilesProcessed *prometheus.CounterVec // labels: tool
	FilesFailed    *prometheus.CounterVec // labels: tool, kind
	RowsSkipped    *prometheus.CounterVec // labels: tool, kind

	// Region filter metrics.
	FilterSamples *prometheus.CounterVec // labels: stage={input,coarse,precise}

	PointsExtracted  prometheus.Counter
	RecordsPublished prometheus.Counter

	RunDuration  *prometheus.HistogramVec // labels: tool
	FileDuration *prometheus.HistogramVec // labels: tool
}

var runBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600}

var fileBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Input files processed successfully.",
		}, []string{"tool"}),
		FilesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Input files skipped after an error, by error kind.",
		}, []string{"tool", "kind"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Input rows skipped after an error, by error kind.",
		}, []string{"tool", "kind"}),
		FilterSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_samples_total",
			Help:      "Grid samples seen at each region filter stage.",
		}, []string{"stage"}),
		PointsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_extracted_total",
			Help:      "Point-forecast rows interpolated from forecast grids.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Point forecasts published to Kafka.",
		}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a complete batch run.",
			Buckets:   runBuckets,
		}, []string{"tool"}),
		FileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent processing one input file.",
			Buckets:   fileBuckets,
		}, []string{"tool"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FilesProcessed,
		m.FilesFailed,
		m.RowsSkipped,
		m.FilterSamples,
		m.PointsExtracted,
		m.RecordsPublished,
		m.RunDuration,
		m.FileDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// WriteTextfile writes the default registry in Prometheus text format for the
// node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
