package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewActMetrics(reg)
	require.NoError(t, err)

	m.RecordRun(false, []string{"CONT_SEND", "CONT_SEND", "CONT_TRADE"})
	m.RecordRun(true, nil)
	m.RecordStep("CONT_SEND", "completed", 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generatedSteps.WithLabelValues("CONT_SEND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepOutcomes.WithLabelValues("CONT_SEND", "completed")))

	// Registering again shares the existing collectors.
	again, err := NewActMetrics(reg)
	require.NoError(t, err)
	again.RecordRun(false, nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("ok")))
}

func TestActMetrics_NilIsNoop(t *testing.T) {
	var m *ActMetrics
	assert.NotPanics(t, func() {
		m.RecordRun(true, []string{"CONT_SEND"})
		m.RecordStep("CONT_SEND", "failed", time.Second)
	})
}
