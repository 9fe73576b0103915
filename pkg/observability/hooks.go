// Package observability combines lifecycle hook consumers into a single
// view fed by the engine.
package observability

import (
	"context"
	"log/slog"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// CombineHooks chains hook sets so every observer sees every event, in
// the order given.
func CombineHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, e)
				}
			}
		},
		OnActionCall: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnActionCall != nil {
					h.OnActionCall(ctx, e)
				}
			}
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnActionReturn != nil {
					h.OnActionReturn(ctx, e)
				}
			}
		},
	}
}

// LoggingHooks emits one structured log line per lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.Info("step_enter",
				"step_id", e.StepID,
				"type", e.StepType,
			)
		},
		OnActionCall: func(ctx context.Context, e *domain.ActionEvent) {
			logger.Info("action_call", "action", e.Action, "step_id", e.StepID)
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			logger.Info("action_return",
				"action", e.Action,
				"step_id", e.StepID,
				"is_error", e.IsError,
			)
		},
	}
}
