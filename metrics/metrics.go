// Package metrics exposes layout engine counters to Prometheus
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the engine. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// Simulation metrics
	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Vertices     prometheus.Gauge
	Edges        prometheus.Gauge

	// Expansion metrics
	Expansions  *prometheus.CounterVec
	FetchErrors prometheus.Counter
}

// NewCollector creates a collector on its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	ticks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		},
	)

	tickDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Simulation tick duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
	)

	vertices := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vertices",
			Help:      "Number of vertices in the graph",
		},
	)

	edges := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "edges",
			Help:      "Number of edges in the graph",
		},
	)

	expansions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansions_total",
			Help:      "Total number of expansion requests by outcome",
		},
		[]string{"status"},
	)

	fetchErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Total number of failed entity fetches",
		},
	)

	registry.MustRegister(ticks, tickDuration, vertices, edges, expansions, fetchErrors)

	return &Collector{
		registry:     registry,
		Ticks:        ticks,
		TickDuration: tickDuration,
		Vertices:     vertices,
		Edges:        edges,
		Expansions:   expansions,
		FetchErrors:  fetchErrors,
	}
}

// ObserveTick records one simulation tick and the graph size after it
func (c *Collector) ObserveTick(d time.Duration, vertices, edges int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDuration.Observe(d.Seconds())
	c.Vertices.Set(float64(vertices))
	c.Edges.Set(float64(edges))
}

// ObserveExpansion counts a finished expansion request
func (c *Collector) ObserveExpansion(status string) {
	if c == nil {
		return
	}
	c.Expansions.WithLabelValues(status).Inc()
}

// ObserveFetchError counts a failed fetch
func (c *Collector) ObserveFetchError() {
	if c == nil {
		return
	}
	c.FetchErrors.Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
