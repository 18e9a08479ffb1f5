// Package metrics exposes Prometheus metrics for the relationship and group services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "connexions"

// Collector implements ports.MetricsRecorder and records HTTP request metrics.
type Collector struct {
	operations   *prometheus.CounterVec
	conflicts    prometheus.Counter
	mergeLatency prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Graph and group operations by outcome.",
		}, []string{"op", "outcome"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_revision_conflicts_total",
			Help:      "Group record updates retried after a revision conflict.",
		}),
		mergeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Duration of completed user merges.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.operations,
		c.conflicts,
		c.mergeLatency,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// ObserveOperation counts one call of op with its outcome.
func (c *Collector) ObserveOperation(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

// ObserveRevisionConflict counts one compare-and-swap retry.
func (c *Collector) ObserveRevisionConflict() {
	c.conflicts.Inc()
}

// ObserveMerge records the duration of a completed merge.
func (c *Collector) ObserveMerge(d time.Duration) {
	c.mergeLatency.Observe(d.Seconds())
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
