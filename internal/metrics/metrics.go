// Package metrics exposes Prometheus collectors for foodlens.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for analyses, product lookups and the HTTP API.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Analyses by entry point and overall risk tier
	Analyses *prometheus.CounterVec

	// Health score distribution
	HealthScore prometheus.Histogram

	// Product lookups by kind (barcode, search) and outcome (hit, miss, not_found, error)
	ProductLookups *prometheus.CounterVec

	// Upstream product database latency
	ProductLatency prometheus.Histogram

	// HTTP requests by route and status code
	HTTPRequests *prometheus.CounterVec

	// HTTP latency by route
	HTTPLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foodlens_analyses_total",
			Help: "Total analyses by entry point and overall risk tier",
		}, []string{"entry", "risk"}),

		HealthScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodlens_health_score",
			Help:    "Distribution of computed health scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),

		ProductLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foodlens_product_lookups_total",
			Help: "Product database lookups by kind and outcome",
		}, []string{"kind", "outcome"}),

		ProductLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodlens_product_fetch_duration_seconds",
			Help:    "Duration of upstream product database requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foodlens_http_requests_total",
			Help: "HTTP API requests by route and status code",
		}, []string{"route", "code"}),

		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodlens_http_request_duration_seconds",
			Help:    "HTTP API request duration by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),
	}
}

// ObserveAnalysis records one completed analysis
func (m *Metrics) ObserveAnalysis(entry, risk string, healthScore int) {
	if m != nil {
		m.Analyses.WithLabelValues(entry, risk).Inc()
		m.HealthScore.Observe(float64(healthScore))
	}
}

// IncrementLookup records a product lookup outcome
func (m *Metrics) IncrementLookup(kind, outcome string) {
	if m != nil {
		m.ProductLookups.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveProductLatency records the duration of one upstream request
func (m *Metrics) ObserveProductLatency(d time.Duration) {
	if m != nil {
		m.ProductLatency.Observe(d.Seconds())
	}
}

// ObserveHTTP records one served HTTP request
func (m *Metrics) ObserveHTTP(route, code string, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, code).Inc()
		m.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}
