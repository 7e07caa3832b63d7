package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/drivers-report-service/internal/datefield"
)

const namespace = "drivers_report"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Date field metrics.
	FieldCommits       *prometheus.CounterVec // labels: outcome={committed,unchanged,reverted,cleared}
	FieldNotifications prometheus.Counter
	TimeOptionsBuilt   prometheus.Histogram

	// Ranking map metrics.
	MapDataRequests *prometheus.CounterVec // labels: map, cache={hit,miss}

	// HTTP metrics.
	HTTPRequests    *prometheus.CounterVec // labels: method, code
	HTTPRateLimited prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss,shared}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total field events read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total notifications written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total field events that could not be applied.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-apply-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		FieldCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_commits_total",
			Help:      "Date field commits by outcome.",
		}, []string{"outcome"}),
		FieldNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_notifications_total",
			Help:      "Date field listener notifications.",
		}),
		TimeOptionsBuilt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "time_options_built",
			Help:      "Number of entries in each rebuilt time option list.",
			Buckets:   []float64{0, 1, 4, 12, 24, 48, 96, 288, 1440},
		}),
		MapDataRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "map_data_served_total",
			Help:      "Ranking maps served by map and cache result.",
		}, []string{"map", "cache"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "HTTP requests rejected by the rate limiter.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.FieldCommits,
		m.FieldNotifications,
		m.TimeOptionsBuilt,
		m.MapDataRequests,
		m.HTTPRequests,
		m.HTTPRateLimited,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}

// Committed implements datefield.Observer.
func (m *Metrics) Committed(outcome datefield.Outcome) {
	m.FieldCommits.WithLabelValues(string(outcome)).Inc()
}

// Notified implements datefield.Observer.
func (m *Metrics) Notified() {
	m.FieldNotifications.Inc()
}

// OptionsBuilt implements timeopts.Observer.
func (m *Metrics) OptionsBuilt(n int) {
	m.TimeOptionsBuilt.Observe(float64(n))
}

// MapDataServed implements rankings.Observer.
func (m *Metrics) MapDataServed(mapID string, cached bool) {
	result := "miss"
	if cached {
		result = "hit"
	}
	m.MapDataRequests.WithLabelValues(mapID, result).Inc()
}

// RequestServed counts one HTTP response.
func (m *Metrics) RequestServed(method string, code int) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
