package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agent-cost/core/catalog"
	"agent-cost/core/types"
)

// Namespace prefixes every metric name
const Namespace = "agentcost"

// Metrics holds the server's Prometheus collectors.
//
// Metrics:
//   - agentcost_http_requests_total: requests by route and status code
//   - agentcost_http_request_duration_seconds: request latency by route
//   - agentcost_estimates_total: priced agents by kind and model
//   - agentcost_estimated_monthly_cost: distribution of monthly totals by kind
//   - agentcost_catalog_reloads_total: catalog load attempts by result
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	estimatesTotal  *prometheus.CounterVec
	monthlyCost     *prometheus.HistogramVec
	catalogReloads  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. A nil registry gets a
// fresh one with the Go and process collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"route"},
		),
		estimatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "estimates_total",
				Help:      "Total number of priced agent configurations",
			},
			[]string{"agent", "model"},
		),
		monthlyCost: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "estimated_monthly_cost",
				Help:      "Estimated monthly cost per agent in catalog currency",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"agent"},
		),
		catalogReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "catalog",
				Name:      "reloads_total",
				Help:      "Catalog load attempts by result (changed, unchanged, failed)",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.estimatesTotal,
		m.monthlyCost,
		m.catalogReloads,
	)
	return m
}

// Registry returns the registry the collectors are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// RecordRequest records one finished HTTP request
func (m *Metrics) RecordRequest(route, code string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, code).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordBreakdown records one priced agent
func (m *Metrics) RecordBreakdown(b *types.CostBreakdown) {
	if b == nil {
		return
	}
	m.estimatesTotal.WithLabelValues(b.Agent.String(), b.Model).Inc()
	m.monthlyCost.WithLabelValues(b.Agent.String()).Observe(b.Total.InexactFloat64())
}

// CatalogReloadHook counts catalog load attempts; pass it to
// catalog.WithReloadHook
func (m *Metrics) CatalogReloadHook() catalog.ReloadHook {
	return func(_ *catalog.Catalog, changed bool, err error) {
		switch {
		case err != nil:
			m.catalogReloads.WithLabelValues("failed").Inc()
		case changed:
			m.catalogReloads.WithLabelValues("changed").Inc()
		default:
			m.catalogReloads.WithLabelValues("unchanged").Inc()
		}
	}
}
