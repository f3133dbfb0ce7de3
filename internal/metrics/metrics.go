// Package metrics holds the prometheus collectors of the prompt service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reflect"

// Collector owns a private registry so tests can create as many as they need.
type Collector struct {
	registry *prometheus.Registry

	Generations  *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	IndexOps     *prometheus.CounterVec
}

// NewCollector creates and registers the collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_total",
				Help:      "Prompt and reflection responses by kind and source",
			},
			[]string{"kind", "source"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		IndexOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_operations_total",
				Help:      "Retrieval index operations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}

	registry.MustRegister(
		c.Generations,
		c.HTTPRequests,
		c.HTTPDuration,
		c.IndexOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Generation counts one prompt or reflection outcome. Safe on a nil Collector.
func (c *Collector) Generation(kind, source string) {
	if c == nil {
		return
	}
	c.Generations.WithLabelValues(kind, source).Inc()
}

// IndexOp counts one index operation. Safe on a nil Collector.
func (c *Collector) IndexOp(op string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.IndexOps.WithLabelValues(op, outcome).Inc()
}

// Request records one HTTP request. Safe on a nil Collector.
func (c *Collector) Request(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
