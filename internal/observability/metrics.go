package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "prunact"

// ActMetrics counts generation runs and executed steps.
type ActMetrics struct {
	runs           *prometheus.CounterVec
	generatedSteps *prometheus.CounterVec
	stepOutcomes   *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
}

// NewActMetrics registers the ACT collectors with reg, reusing collectors that
// are already registered. A nil reg uses the default registerer.
func NewActMetrics(reg prometheus.Registerer) (*ActMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &ActMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generation_runs_total",
			Help:      "Step generation runs by result.",
		}, []string{"result"}),
		generatedSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generated_steps_total",
			Help:      "Steps emitted by step generation, by step type.",
		}, []string{"type"}),
		stepOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "executed_steps_total",
			Help:      "Executed steps by step type and outcome.",
		}, []string{"type", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of executed steps.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"type"}),
	}

	var err error
	if m.runs, err = register(reg, m.runs); err != nil {
		return nil, err
	}
	if m.generatedSteps, err = register(reg, m.generatedSteps); err != nil {
		return nil, err
	}
	if m.stepOutcomes, err = register(reg, m.stepOutcomes); err != nil {
		return nil, err
	}
	if m.stepDuration, err = register(reg, m.stepDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register metric: %w", err)
	}
	return c, nil
}

// RecordRun counts a finished generation run and the steps it produced.
func (m *ActMetrics) RecordRun(failed bool, stepTypes []string) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	m.runs.WithLabelValues(result).Inc()
	for _, t := range stepTypes {
		m.generatedSteps.WithLabelValues(t).Inc()
	}
}

// RecordStep counts an executed step.
func (m *ActMetrics) RecordStep(stepType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stepOutcomes.WithLabelValues(stepType, outcome).Inc()
	m.stepDuration.WithLabelValues(stepType).Observe(elapsed.Seconds())
}
