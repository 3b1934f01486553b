package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementStepOutcome("request_code", OutcomeAccepted)
	m.IncrementStepOutcome("request_code", OutcomeAccepted)
	m.IncrementStale("confirm_code")
	m.SetActiveWorkflows(3)
	m.IncrementCompleted()
	m.ObserveBackendLatency("submit", 20*time.Millisecond)
	m.IncrementBreakerTransition("backend", "open")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepOutcomes.WithLabelValues("request_code", OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses.WithLabelValues("confirm_code")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveWorkflows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompletedSignups))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("backend", "open")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BackendLatency))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementStepOutcome("submit", OutcomeRejected)
		m.ObserveBackendLatency("submit", time.Second)
		m.IncrementStale("submit")
		m.SetActiveWorkflows(1)
		m.IncrementCompleted()
		m.IncrementBreakerTransition("b", "closed")
	})
}
