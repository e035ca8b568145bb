package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	// OpenWeatherMap client.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint={geocode,current,forecast}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	GeocodeCache     *prometheus.CounterVec   // labels: result={hit,miss}

	// Domain operations.
	SearchesRejected prometheus.Counter // non-Japanese or unknown cities
	LedgerOps        *prometheus.CounterVec // labels: op={append,edit,delete}

	// Background refresh of favorite-city snapshots.
	SnapshotRefreshes prometheus.Counter
	SnapshotErrors    prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umbrella",
			Name:      "upstream_requests_total",
			Help:      "OpenWeatherMap API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "umbrella",
			Name:      "upstream_request_duration_seconds",
			Help:      "OpenWeatherMap API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umbrella",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		SearchesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "umbrella",
			Name:      "searches_rejected_total",
			Help:      "City searches rejected by the Japan-only validation.",
		}),
		LedgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umbrella",
			Name:      "ledger_operations_total",
			Help:      "Post ledger mutations by operation.",
		}, []string{"op"}),
		SnapshotRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "umbrella",
			Name:      "snapshot_refreshes_total",
			Help:      "Completed favorite-city snapshot refresh runs.",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "umbrella",
			Name:      "snapshot_errors_total",
			Help:      "Failed city refreshes during snapshot runs.",
		}),
	}
}

// NewMetrics creates the collectors and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.GeocodeCache,
		m.SearchesRejected,
		m.LedgerOps,
		m.SnapshotRefreshes,
		m.SnapshotErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so parallel tests
// do not trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
