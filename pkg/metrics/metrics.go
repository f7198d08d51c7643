// Package metrics exposes the aggregation engine's Prometheus metrics.
// Methods are safe to call on a nil *Registry so callers that do not care
// about metrics can pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wessley_parts"

// Registry holds the engine's collectors.
type Registry struct {
	reg *prometheus.Registry

	SourceRequests    *prometheus.CounterVec
	SourceDuration    *prometheus.HistogramVec
	SourceResults     *prometheus.CounterVec
	AggregateDuration prometheus.Histogram
	AggregateResults  prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
	RateLimited       prometheus.Counter
}

// New creates a Registry with Go runtime and process collectors attached.
func New() *Registry {
	r := prometheus.NewRegistry()

	sourceRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_requests_total",
		Help:      "Source adapter invocations by outcome",
	}, []string{"source", "outcome"})
	sourceDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_duration_seconds",
		Help:      "Source adapter latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
	}, []string{"source"})
	sourceResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_results_total",
		Help:      "Normalized results returned by source",
	}, []string{"source"})
	aggregateDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregate_duration_seconds",
		Help:      "End-to-end aggregation latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
	})
	aggregateResults := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregate_results",
		Help:      "Results per aggregation",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})
	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the inbound rate limiter",
	})

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		sourceRequests, sourceDuration, sourceResults,
		aggregateDuration, aggregateResults,
		httpRequests, rateLimited,
	)

	return &Registry{
		reg:               r,
		SourceRequests:    sourceRequests,
		SourceDuration:    sourceDuration,
		SourceResults:     sourceResults,
		AggregateDuration: aggregateDuration,
		AggregateResults:  aggregateResults,
		HTTPRequests:      httpRequests,
		RateLimited:       rateLimited,
	}
}

// ObserveSource records one adapter invocation.
func (r *Registry) ObserveSource(source, outcome string, d time.Duration, results int) {
	if r == nil {
		return
	}
	r.SourceRequests.WithLabelValues(source, outcome).Inc()
	r.SourceDuration.WithLabelValues(source).Observe(d.Seconds())
	r.SourceResults.WithLabelValues(source).Add(float64(results))
}

// ObserveAggregate records one completed aggregation.
func (r *Registry) ObserveAggregate(d time.Duration, results int) {
	if r == nil {
		return
	}
	r.AggregateDuration.Observe(d.Seconds())
	r.AggregateResults.Observe(float64(results))
}

// ObserveHTTP counts a served request.
func (r *Registry) ObserveHTTP(route string, code int) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// ObserveRateLimited counts a request rejected by the rate limiter.
func (r *Registry) ObserveRateLimited() {
	if r == nil {
		return
	}
	r.RateLimited.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
