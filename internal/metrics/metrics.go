// Package metrics provides Prometheus metrics for the dashboard client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives client-side measurements. Nop discards them.
type Recorder interface {
	RecordRequest(endpoint, outcome string, duration time.Duration)
	RecordSample(status string)
	RecordVerdict(correct bool)
	RecordConflict()
	SetRelativeAccuracy(percent float64)
}

// Nop is a Recorder that does nothing.
type Nop struct{}

func (Nop) RecordRequest(string, string, time.Duration) {}
func (Nop) RecordSample(string)                         {}
func (Nop) RecordVerdict(bool)                          {}
func (Nop) RecordConflict()                             {}
func (Nop) SetRelativeAccuracy(float64)                 {}

// Manager owns the Prometheus collectors for one registry.
type Manager struct {
	registry         *prometheus.Registry
	namespace        string
	histogramBuckets []float64

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	samples          *prometheus.CounterVec
	verdicts         *prometheus.CounterVec
	conflicts        prometheus.Counter
	relativeAccuracy prometheus.Gauge
}

var _ Recorder = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		m.namespace = namespace
	}
}

// WithRegistry registers collectors on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		m.registry = registry
	}
}

// WithHistogramBuckets sets the latency buckets in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		m.histogramBuckets = buckets
	}
}

// NewManager creates a Manager with its own registry by default.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "punchdash",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Backend requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	m.requestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})

	m.samples = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "samples_total",
		Help:      "Sample polls by result status",
	}, []string{"status"})

	m.verdicts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "verdicts_total",
		Help:      "Submitted verdicts by kind",
	}, []string{"kind"})

	m.conflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "statistics_conflicts_total",
		Help:      "Statistics pushes rejected because another client updated them first",
	})

	m.relativeAccuracy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "relative_accuracy_percent",
		Help:      "Relative accuracy of the classifier as last reported",
	})

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts a backend request and observes its latency.
func (m *Manager) RecordRequest(endpoint, outcome string, duration time.Duration) {
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordSample counts a sample poll.
func (m *Manager) RecordSample(status string) {
	m.samples.WithLabelValues(status).Inc()
}

// RecordVerdict counts a submitted verdict.
func (m *Manager) RecordVerdict(correct bool) {
	kind := "corrected"
	if correct {
		kind = "correct"
	}
	m.verdicts.WithLabelValues(kind).Inc()
}

// RecordConflict counts a rejected statistics push.
func (m *Manager) RecordConflict() {
	m.conflicts.Inc()
}

// SetRelativeAccuracy publishes the latest relative accuracy.
func (m *Manager) SetRelativeAccuracy(percent float64) {
	m.relativeAccuracy.Set(percent)
}
