// Package metrics provides Prometheus counters for the rating service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets the Prometheus registry. Defaults to a fresh one so
// tests and multiple managers never collide.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the service counters. A nil *Manager is valid and records
// nothing.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	flowsStarted    *prometheus.CounterVec
	evaluations     *prometheus.CounterVec
	acceptances     *prometheus.CounterVec
	benefitLookups  *prometheus.CounterVec
	ratedPercent    *prometheus.HistogramVec
}

// NewManager registers every metric on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{namespace: "ppd"}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)
	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_created_total",
		Help:      "Rating sessions opened",
	})
	m.sessionsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_expired_total",
		Help:      "Idle rating sessions deleted by the sweeper",
	})
	m.flowsStarted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "flows_started_total",
		Help:      "Body-part flows started, by flow",
	}, []string{"flow"})
	m.evaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "evaluations_total",
		Help:      "Result nodes evaluated, by flow",
	}, []string{"flow"})
	m.acceptances = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ratings_accepted_total",
		Help:      "Ratings accepted into a session, by flow",
	}, []string{"flow"})
	m.benefitLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "benefit_lookups_total",
		Help:      "Benefit estimates, by table and whether a table applied",
	}, []string{"table", "supported"})
	m.ratedPercent = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "rating_percent",
		Help:      "Whole-body percent of accepted ratings",
		Buckets:   []float64{0, 1, 2, 5, 10, 15, 20, 25, 34, 50, 75, 100},
	}, []string{"flow"})
	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Manager) SessionsExpired(n int) {
	if m == nil {
		return
	}
	m.sessionsExpired.Add(float64(n))
}

func (m *Manager) FlowStarted(flow string) {
	if m == nil {
		return
	}
	m.flowsStarted.WithLabelValues(flow).Inc()
}

func (m *Manager) Evaluated(flow string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(flow).Inc()
}

func (m *Manager) Accepted(flow string, percent float64) {
	if m == nil {
		return
	}
	m.acceptances.WithLabelValues(flow).Inc()
	m.ratedPercent.WithLabelValues(flow).Observe(percent)
}

func (m *Manager) BenefitLookup(table string, supported bool) {
	if m == nil {
		return
	}
	if table == "" {
		table = "none"
	}
	s := "false"
	if supported {
		s = "true"
	}
	m.benefitLookups.WithLabelValues(table, s).Inc()
}
