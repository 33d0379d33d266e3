package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts and times function evaluations.
type Metrics struct {
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers evaluation metrics with reg. A nil reg creates
// metrics that are not registered anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bbo",
			Name:      "evaluations_total",
			Help:      "Total number of function evaluations.",
		}, []string{"function"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bbo",
			Name:      "evaluation_failures_total",
			Help:      "Total number of failed function evaluations.",
		}, []string{"function"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bbo",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of function evaluations.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 12),
		}, []string{"function"}),
	}
}

func (m *Metrics) observe(name string, seconds float64, err error) {
	if m == nil {
		return
	}

	m.evaluations.WithLabelValues(name).Inc()
	m.duration.WithLabelValues(name).Observe(seconds)

	if err != nil {
		m.failures.WithLabelValues(name).Inc()
	}
}

// Evaluations returns the counter of evaluations of the named function.
func (m *Metrics) Evaluations(name string) prometheus.Counter {
	return m.evaluations.WithLabelValues(name)
}

// Failures returns the counter of failed evaluations of the named function.
func (m *Metrics) Failures(name string) prometheus.Counter {
	return m.failures.WithLabelValues(name)
}
