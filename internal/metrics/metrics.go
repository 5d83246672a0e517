package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/locator/internal/errors"
)

const subsystem = "locator"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics instruments one locator. Every locator owns its registry so that
// several locators can coexist in one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commits     *prometheus.CounterVec
	bindings    prometheus.Counter
	descriptors prometheus.Gauge
	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	creation    *prometheus.HistogramVec
	singletons  prometheus.Gauge
}

// New creates the locator metrics under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commits_total",
			Help:      "Configuration commits by outcome",
		}, []string{"outcome"}),
		bindings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bindings_total",
			Help:      "Descriptors published by successful commits",
		}),
		descriptors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "descriptors",
			Help:      "Descriptors in the current registry snapshot",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resolutions_total",
			Help:      "Service resolutions by outcome",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Individual failure causes by kind",
		}, []string{"kind"}),
		creation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "creation_duration_seconds",
			Help:      "Time spent creating service instances",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"scope"}),
		singletons: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "singletons",
			Help:      "Cached singleton instances",
		}),
	}

	m.registry.MustRegister(m.commits, m.bindings, m.descriptors, m.resolutions, m.failures, m.creation, m.singletons)
	return m
}

// RegisterRuntime adds the go runtime and process collectors.
func (m *Metrics) RegisterRuntime() error {
	if m == nil {
		return nil
	}
	if err := m.registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	return m.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Registry returns the prometheus registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCommit records a commit outcome. size is the number of staged
// descriptors and total the registry size after the commit.
func (m *Metrics) ObserveCommit(err error, size, total int) {
	if m == nil {
		return
	}
	if err != nil {
		m.commits.WithLabelValues(OutcomeFailure).Inc()
		m.ObserveFailure(err)
		return
	}
	m.commits.WithLabelValues(OutcomeSuccess).Inc()
	m.bindings.Add(float64(size))
	m.descriptors.Set(float64(total))
}

// ObserveResolution records the outcome of obtaining a service.
func (m *Metrics) ObserveResolution(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.resolutions.WithLabelValues(OutcomeFailure).Inc()
		m.ObserveFailure(err)
		return
	}
	m.resolutions.WithLabelValues(OutcomeSuccess).Inc()
}

// ObserveFailure counts every cause of err by kind.
func (m *Metrics) ObserveFailure(err error) {
	if m == nil || err == nil {
		return
	}
	if multi, ok := errors.AsMultiError(err); ok {
		for _, cause := range multi.Errors() {
			m.failures.WithLabelValues(errors.KindOf(cause).String()).Inc()
		}
		return
	}
	m.failures.WithLabelValues(errors.KindOf(err).String()).Inc()
}

// ObserveCreation records how long creating an instance in scope took.
func (m *Metrics) ObserveCreation(scope string, d time.Duration) {
	if m == nil {
		return
	}
	m.creation.WithLabelValues(scope).Observe(d.Seconds())
}

// SetSingletons records the number of cached singletons.
func (m *Metrics) SetSingletons(n int) {
	if m == nil {
		return
	}
	m.singletons.Set(float64(n))
}
