package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jobmap_region"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// region pipeline and the cluster API.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Region metrics.
	RegionExtractions *prometheus.CounterVec // labels: outcome={city,province,nationwide,unrecognized}
	RegionCache       *prometheus.CounterVec // labels: result={hit,miss}

	// Cluster API metrics.
	ClusterRequests *prometheus.CounterVec // labels: mode={cluster,marker}, level={province,city,none}
	ClusterDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RegionExtractions,
		m.RegionCache,
		m.ClusterRequests,
		m.ClusterDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      help("Total posting messages read from the source topic."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      help("Total region-tagged postings written to the sink topic."),
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      help("Total postings rejected during validation or tagging."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of messages per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-transform-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RegionExtractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_extractions_total",
			Help:      help("Location extractions by outcome."),
		}, []string{"outcome"}),
		RegionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_cache_total",
			Help:      help("Extraction cache lookups by result."),
		}, []string{"result"}),
		ClusterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_requests_total",
			Help:      help("Cluster API requests by render mode and aggregation level."),
		}, []string{"mode", "level"}),
		ClusterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cluster_duration_seconds",
			Help:      help("Time spent grouping postings for one cluster request."),
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

// Outcome labels for RegionExtractions.
const (
	OutcomeCity         = "city"
	OutcomeProvince     = "province"
	OutcomeNationwide   = "nationwide"
	OutcomeUnrecognized = "unrecognized"
)

// CacheLookup records one extraction cache lookup.
func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.RegionCache.WithLabelValues("hit").Inc()
		return
	}
	m.RegionCache.WithLabelValues("miss").Inc()
}
