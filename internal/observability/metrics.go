package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// extraction and distribution pipeline.
type Metrics struct {
	// Extraction metrics, labelled by outcome:
	// success, empty_input, upstream_error, malformed_response, error.
	Extractions *prometheus.CounterVec

	// Generation service metrics.
	GenerationRequests *prometheus.CounterVec // labels: outcome={success,error}
	GenerationDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeFallbacks   prometheus.Counter

	// Broadcast hub metrics.
	ConnectedObservers prometheus.Gauge
	BroadcastsTotal    prometheus.Counter
	DeliveryFailures   prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_map",
			Name:      "extractions_total",
			Help:      "Extraction requests by outcome.",
		}, []string{"outcome"}),
		GenerationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_map",
			Name:      "generation_requests_total",
			Help:      "Generation service calls by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_map",
			Name:      "generation_duration_seconds",
			Help:      "Generation service request duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_map",
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider queries by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_map",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_map",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_map",
			Name:      "geocode_fallbacks_total",
			Help:      "Resolutions that degraded to the city-center fallback.",
		}),
		ConnectedObservers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "incident_map",
			Name:      "connected_observers",
			Help:      "Number of currently connected WebSocket observers.",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_map",
			Name:      "broadcasts_total",
			Help:      "Broadcast calls issued against the hub.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_map",
			Name:      "delivery_failures_total",
			Help:      "Per-observer delivery failures during broadcast.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Extractions,
		m.GenerationRequests,
		m.GenerationDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeFallbacks,
		m.ConnectedObservers,
		m.BroadcastsTotal,
		m.DeliveryFailures,
	}
}

// NewMetrics creates all pipeline metrics and registers them with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates the same metrics backed by a private registry
// so parallel tests do not collide on the default one.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	return m
}
