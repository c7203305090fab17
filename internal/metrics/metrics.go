// Package metrics exposes gateway metrics in the Prometheus format
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ontogate"

// Metrics holds the gateway collectors on a private registry. It implements
// the observer interfaces of the triplestore client, the cache middleware
// and the logging middleware.
type Metrics struct {
	registry *prometheus.Registry

	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	cacheTotal      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	purgesTotal     *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "triplestore",
			Name:      "queries_total",
			Help:      "Total number of SPARQL queries sent to the triplestore",
		}, []string{"outcome"}),

		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "triplestore",
			Name:      "query_duration_seconds",
			Help:      "SPARQL query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cacheable requests by result (hit, miss, purge)",
		}, []string{"result"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		purgesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "purges_total",
			Help:      "Cache purges by origin (local, remote)",
		}, []string{"origin"}),
	}

	m.registry.MustRegister(
		m.queriesTotal,
		m.queryDuration,
		m.cacheTotal,
		m.requestsTotal,
		m.requestDuration,
		m.purgesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveQuery records one triplestore query
func (m *Metrics) ObserveQuery(outcome string, d time.Duration) {
	m.queriesTotal.WithLabelValues(outcome).Inc()
	m.queryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveCache records one cache lookup
func (m *Metrics) ObserveCache(result string) {
	m.cacheTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObservePurge records a cache purge applied locally or received from a
// replica
func (m *Metrics) ObservePurge(origin string) {
	m.purgesTotal.WithLabelValues(origin).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
