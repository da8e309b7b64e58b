package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "store_tier"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Backend transport metrics.
	BackendRequests *prometheus.CounterVec   // labels: endpoint, outcome={ok,server_error,network_error}
	BackendDuration *prometheus.HistogramVec // labels: endpoint

	// Decode metrics.
	DecodeStrategy *prometheus.CounterVec // labels: endpoint, strategy
	DecodeFailures *prometheus.CounterVec // labels: endpoint, kind

	// Catalog metrics.
	StoresByTier   *prometheus.GaugeVec // labels: tier
	InvalidIDs     prometheus.Gauge
	DuplicateIDs   prometheus.Counter
	SnapshotLoaded prometheus.Gauge

	// Refresh metrics.
	Refreshes          *prometheus.CounterVec // labels: outcome={success,error}
	RefreshDuration    prometheus.Histogram
	RefresherRunning   prometheus.Gauge
	SnapshotsPublished prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

// NewMetricsWith registers all service metrics with reg. Short-lived tools
// pass their own registry so nothing leaks into the default one.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		DecodeStrategy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_strategy_total",
			Help:      "Successful response decodes by endpoint and strategy.",
		}, []string{"endpoint", "strategy"}),
		DecodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Responses no decode strategy could handle, by endpoint and final failure kind.",
		}, []string{"endpoint", "kind"}),
		StoresByTier: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stores",
			Help:      "Stores in the current snapshot by performance tier.",
		}, []string{"tier"}),
		InvalidIDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invalid_id_stores",
			Help:      "Stores in the current snapshot whose id is not writable.",
		}),
		DuplicateIDs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_ids_total",
			Help:      "Store ids seen more than once within a fetched batch.",
		}),
		SnapshotLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_loaded_timestamp_seconds",
			Help:      "Unix time of the last successful catalog refresh.",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Catalog refresh attempts by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-classify-publish cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RefresherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresher_running",
			Help:      "1 when the scheduled refresher is active, 0 when shut down.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Classified snapshots written to the sink topic.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BackendRequests,
		m.BackendDuration,
		m.DecodeStrategy,
		m.DecodeFailures,
		m.StoresByTier,
		m.InvalidIDs,
		m.DuplicateIDs,
		m.SnapshotLoaded,
		m.Refreshes,
		m.RefreshDuration,
		m.RefresherRunning,
		m.SnapshotsPublished,
	}
}
