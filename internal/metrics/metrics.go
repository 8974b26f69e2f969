// Package metrics provides Prometheus metrics for the race score service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/raceboard/internal/model"
)

// Submission and read outcomes used as label values
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
	OutcomeOK      = "ok"
)

// Metrics owns a private registry and every collector the service exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	submissions         *prometheus.CounterVec
	leaderboardReads    *prometheus.CounterVec
	storeLatency        *prometheus.HistogramVec
}

type options struct {
	namespace      string
	buckets        []float64
	runtimeMetrics bool
}

// Option applies a configuration option to New.
type Option func(*options)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// WithRuntimeMetrics toggles the Go runtime and process collectors.
func WithRuntimeMetrics(enabled bool) Option {
	return func(o *options) {
		o.runtimeMetrics = enabled
	}
}

// New creates the collectors on a fresh registry.
func New(opts ...Option) *Metrics {
	o := options{
		namespace:      "raceboard",
		buckets:        prometheus.DefBuckets,
		runtimeMetrics: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	registry := prometheus.NewRegistry()
	if o.runtimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"endpoint", "method", "status"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   o.buckets,
		}, []string{"endpoint", "method", "status"}),
		submissions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "score_submissions_total",
			Help:      "Score submissions by reconciliation policy and outcome",
		}, []string{"policy", "outcome"}),
		leaderboardReads: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "leaderboard_reads_total",
			Help:      "Leaderboard reads by outcome",
		}, []string{"outcome"}),
		storeLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of storage backend operations",
			Buckets:   o.buckets,
		}, []string{"operation"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest counts a finished request and observes its latency.
func (m *Metrics) RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(d.Seconds())
}

// RecordSubmission counts a score submission.
func (m *Metrics) RecordSubmission(policy model.Policy, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(policy), outcome).Inc()
}

// RecordLeaderboardRead counts a leaderboard read.
func (m *Metrics) RecordLeaderboardRead(outcome string) {
	if m == nil {
		return
	}
	m.leaderboardReads.WithLabelValues(outcome).Inc()
}

// ObserveStore records how long a storage operation took.
func (m *Metrics) ObserveStore(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(operation).Observe(d.Seconds())
}
