package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for StepOutcomes.
const (
	OutcomeAccepted   = "accepted"
	OutcomeRejected   = "rejected"
	OutcomeSuppressed = "suppressed"
	OutcomeTransport  = "transport_error"
	OutcomeInvalid    = "invalid"
	OutcomeStale      = "stale"
)

// Metrics provides observability for the signup workflow.
type Metrics struct {
	// Step outcomes by step and outcome
	StepOutcomes *prometheus.CounterVec

	// Backend call latency by step
	BackendLatency *prometheus.HistogramVec

	// Responses dropped because the email changed while the call was in flight
	StaleResponses *prometheus.CounterVec

	ActiveWorkflows    prometheus.Gauge
	CompletedSignups   prometheus.Counter
	BreakerTransitions *prometheus.CounterVec
}

// New registers the signup metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StepOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signupgate_step_outcomes_total",
			Help: "Workflow step outcomes by step and outcome",
		}, []string{"step", "outcome"}),

		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signupgate_backend_duration_seconds",
			Help:    "Duration of backend calls by step",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"step"}),

		StaleResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signupgate_stale_responses_total",
			Help: "Backend responses discarded because the draft email changed",
		}, []string{"step"}),

		ActiveWorkflows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signupgate_active_workflows",
			Help: "Workflows currently held by the registry",
		}),

		CompletedSignups: factory.NewCounter(prometheus.CounterOpts{
			Name: "signupgate_completed_signups_total",
			Help: "Registrations accepted by the backend",
		}),

		BreakerTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signupgate_breaker_transitions_total",
			Help: "Backend circuit breaker state changes",
		}, []string{"breaker", "state"}),
	}
}

func (m *Metrics) IncrementStepOutcome(step, outcome string) {
	if m != nil {
		m.StepOutcomes.WithLabelValues(step, outcome).Inc()
	}
}

func (m *Metrics) ObserveBackendLatency(step string, d time.Duration) {
	if m != nil {
		m.BackendLatency.WithLabelValues(step).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementStale(step string) {
	if m != nil {
		m.StaleResponses.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) SetActiveWorkflows(n int) {
	if m != nil {
		m.ActiveWorkflows.Set(float64(n))
	}
}

func (m *Metrics) IncrementCompleted() {
	if m != nil {
		m.CompletedSignups.Inc()
	}
}

func (m *Metrics) IncrementBreakerTransition(breaker, state string) {
	if m != nil {
		m.BreakerTransitions.WithLabelValues(breaker, state).Inc()
	}
}
