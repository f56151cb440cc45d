package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// valuation engine.
type Metrics struct {
	ZoneResolutions  *prometheus.CounterVec // labels: outcome={hit,miss}
	ValuationLookups *prometheus.CounterVec // labels: tier
	EstimatesTotal   *prometheus.CounterVec // labels: source={combined,official,market,fallback}
	ResolveDuration  prometheus.Histogram

	// Dataset gauges, set once after load.
	PolygonsLoaded prometheus.Gauge
	ReferenceRows  prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ZoneResolutions,
		m.ValuationLookups,
		m.EstimatesTotal,
		m.ResolveDuration,
		m.PolygonsLoaded,
		m.ReferenceRows,
		m.GeocodeRequests,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ZoneResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omi_valuation",
			Name:      "zone_resolutions_total",
			Help:      "Coordinate-to-zone resolutions by outcome.",
		}, []string{"outcome"}),
		ValuationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omi_valuation",
			Name:      "valuation_lookups_total",
			Help:      "Value-table lookups by the fallback tier that matched.",
		}, []string{"tier"}),
		EstimatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omi_valuation",
			Name:      "estimates_total",
			Help:      "Blended estimates by data source.",
		}, []string{"source"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "omi_valuation",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of a full coordinate-to-valuation resolution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PolygonsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "omi_valuation",
			Name:      "polygons_loaded",
			Help:      "Number of zone polygons held in memory.",
		}),
		ReferenceRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "omi_valuation",
			Name:      "reference_rows_loaded",
			Help:      "Number of value-table rows held in memory.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omi_valuation",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omi_valuation",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}
