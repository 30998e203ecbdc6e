package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/water-abstraction-service-sub002/metrics"
)

// gathered indexes the registry's metric families by name.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterByLabel(f *dto.MetricFamily, value string) float64 {
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRun("ok", 20*time.Millisecond)
	m.ObserveRun("ok", 30*time.Millisecond)
	m.ObserveRun("not_found", time.Millisecond)
	m.ObserveElementError("over_abstraction")
	m.ObserveElementError("under_query")
	m.ObserveSubPeriods(3)

	families := gathered(t, reg)
	require.Len(t, families, 5)

	runs := families["tpt_billing_runs_total"]
	assert.Equal(t, 2.0, counterByLabel(runs, "ok"))
	assert.Equal(t, 1.0, counterByLabel(runs, "not_found"))

	assert.Equal(t, 1.0, counterByLabel(families["tpt_billing_element_errors_total"], "under_query"))
	assert.Equal(t, 1.0, families["tpt_billing_over_abstraction_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, uint64(3), families["tpt_billing_run_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)

	assert.Panics(t, func() { metrics.New(reg) })
}
