package domain

import "context"

// StepEvent describes the engine entering or leaving a step.
type StepEvent struct {
	StepID   string
	StepType string
}

// ActionEvent describes an action dispatch and its outcome.
type ActionEvent struct {
	StepID  string
	Action  string
	IsError bool
}

// LifecycleHooks defines optional callbacks for engine observability.
// Nil hooks are skipped.
type LifecycleHooks struct {
	OnStepEnter    func(context.Context, *StepEvent)
	OnActionCall   func(context.Context, *ActionEvent)
	OnActionReturn func(context.Context, *ActionEvent)
}
