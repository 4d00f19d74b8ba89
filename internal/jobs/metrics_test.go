package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("invoice:pdf:warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("invoice:pdf:warmup").End(boom), boom)

	assert.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("invoice:pdf:warmup", "success")))
	assert.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("invoice:pdf:warmup", "failure")))
	assert.Equal(t, 1.0, counterValue(t, m.failures.WithLabelValues("invoice:pdf:warmup")))
}

func TestAddWarmedPages(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddWarmedPages("fr", 3)
	m.AddWarmedPages("fr", 0)

	assert.Equal(t, 3.0, counterValue(t, m.pages.WithLabelValues("fr")))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.AddWarmedPages("en", 1)
}
