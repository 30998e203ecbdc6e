// Package metrics exposes Prometheus instrumentation for billing runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles billing run metrics.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	SubPeriods           prometheus.Histogram
	ElementErrorsTotal   *prometheus.CounterVec
	OverAbstractionTotal prometheus.Counter
}

// New constructs metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tpt_billing_runs_total",
				Help: "Total two-part tariff runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tpt_billing_run_duration_seconds",
			Help:    "Two-part tariff run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		SubPeriods: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tpt_billing_sub_periods",
			Help:    "Sub-periods per charge version year",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
		}),
		ElementErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tpt_billing_element_errors_total",
				Help: "Charge elements billed with an error code, by code",
			},
			[]string{"code"},
		),
		OverAbstractionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tpt_billing_over_abstraction_total",
			Help: "Charge elements flagged for over-abstraction",
		}),
	}
	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SubPeriods,
		m.ElementErrorsTotal,
		m.OverAbstractionTotal,
	)
	return m
}

// ObserveRun records one run's outcome and duration.
func (m *Metrics) ObserveRun(outcome string, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// ObserveSubPeriods records the number of sub-periods in a run.
func (m *Metrics) ObserveSubPeriods(n int) {
	m.SubPeriods.Observe(float64(n))
}

// ObserveElementError counts one element billed with an error code.
func (m *Metrics) ObserveElementError(code string) {
	m.ElementErrorsTotal.WithLabelValues(code).Inc()
	if code == "over_abstraction" {
		m.OverAbstractionTotal.Inc()
	}
}
