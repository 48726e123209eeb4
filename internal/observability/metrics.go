package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// heat-index pipeline.
type Metrics struct {
	RastersProcessed prometheus.Counter
	PairsMissing     prometheus.Counter
	PipelineRuns     *prometheus.CounterVec // labels: outcome={success,error}
	PipelineRunning  prometheus.Gauge

	// Per-run metrics.
	RunSize     prometheus.Histogram
	RunDuration prometheus.Histogram

	// Archive client metrics.
	ArchiveRequests        *prometheus.CounterVec   // labels: kind={rasters,asset}, outcome={success,error}
	ArchiveCache           *prometheus.CounterVec   // labels: kind={rasters,asset}, result={hit,miss}
	ArchiveRequestDuration *prometheus.HistogramVec // labels: kind={rasters,asset}

	// Layer rendering metrics.
	LayersRendered *prometheus.CounterVec // labels: band
	RenderDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RastersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatindex_etl",
			Name:      "rasters_processed_total",
			Help:      "Total derived rasters stored.",
		}),
		PairsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatindex_etl",
			Name:      "pairs_missing_total",
			Help:      "Total days skipped because no dewpoint raster matched.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatindex_etl",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatindex_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is active, 0 otherwise.",
		}),
		RunSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatindex_etl",
			Name:      "run_size",
			Help:      "Number of temperature rasters fetched per run.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 20000},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatindex_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-derive-store run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		ArchiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatindex_etl",
			Name:      "archive_requests_total",
			Help:      "Raster archive API requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ArchiveCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatindex_etl",
			Name:      "archive_cache_total",
			Help:      "Raster archive cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		ArchiveRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heatindex_etl",
			Name:      "archive_request_duration_seconds",
			Help:      "Raster archive API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		LayersRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatindex_etl",
			Name:      "layers_rendered_total",
			Help:      "Map layers rendered by band.",
		}, []string{"band"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatindex_etl",
			Name:      "render_duration_seconds",
			Help:      "PNG layer render duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	prometheus.MustRegister(
		m.RastersProcessed,
		m.PairsMissing,
		m.PipelineRuns,
		m.PipelineRunning,
		m.RunSize,
		m.RunDuration,
		m.ArchiveRequests,
		m.ArchiveCache,
		m.ArchiveRequestDuration,
		m.LayersRendered,
		m.RenderDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RastersProcessed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatindex_etl", Name: "rasters_processed_total"}),
		PairsMissing:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatindex_etl", Name: "pairs_missing_total"}),
		PipelineRuns:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heatindex_etl", Name: "pipeline_runs_total"}, []string{"outcome"}),
		PipelineRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "heatindex_etl", Name: "pipeline_running"}),
		RunSize:                prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heatindex_etl", Name: "run_size"}),
		RunDuration:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heatindex_etl", Name: "run_duration_seconds"}),
		ArchiveRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heatindex_etl", Name: "archive_requests_total"}, []string{"kind", "outcome"}),
		ArchiveCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heatindex_etl", Name: "archive_cache_total"}, []string{"kind", "result"}),
		ArchiveRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "heatindex_etl", Name: "archive_request_duration_seconds"}, []string{"kind"}),
		LayersRendered:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heatindex_etl", Name: "layers_rendered_total"}, []string{"band"}),
		RenderDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heatindex_etl", Name: "render_duration_seconds"}),
	}
}
