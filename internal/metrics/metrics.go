// Package metrics exposes engine activity as Prometheus collectors fed
// by lifecycle hooks.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zapcampo/convoflow/pkg/domain"
)

// Metrics bundles the collectors recorded by engine hooks.
type Metrics struct {
	StepVisits     *prometheus.CounterVec
	ActionCalls    *prometheus.CounterVec
	ActionFailures *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convoflow_step_visits_total",
				Help: "Total number of step visits",
			},
			[]string{"step_id", "step_type"},
		),
		ActionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convoflow_action_calls_total",
				Help: "Total number of action dispatches",
			},
			[]string{"action"},
		),
		ActionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convoflow_action_failures_total",
				Help: "Total number of failed action dispatches",
			},
			[]string{"action"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "convoflow_action_duration_seconds",
				Help: "Duration of action executions",
			},
			[]string{"action"},
		),
	}
	reg.MustRegister(m.StepVisits, m.ActionCalls, m.ActionFailures, m.ActionDuration)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
// Action duration pairs the call and return events of a step; the engine
// emits them back to back within a single turn.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	var starts sync.Map // step id -> time.Time
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.StepID, e.StepType).Inc()
		},
		OnActionCall: func(ctx context.Context, e *domain.ActionEvent) {
			starts.Store(e.StepID, time.Now())
			m.ActionCalls.WithLabelValues(e.Action).Inc()
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			if e.IsError {
				m.ActionFailures.WithLabelValues(e.Action).Inc()
			}
			if v, ok := starts.LoadAndDelete(e.StepID); ok {
				m.ActionDuration.WithLabelValues(e.Action).Observe(time.Since(v.(time.Time)).Seconds())
			}
		},
	}
}
