package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/pkg/domain"
)

// StepFailureError reports that executing a step failed in a way that is an
// authoring defect (most notably an unknown action name). It aborts the
// turn; runtime hiccups of external calls never produce it.
type StepFailureError struct {
	StepID  string
	Message string
}

func (e *StepFailureError) Error() string {
	return fmt.Sprintf("step '%s': %s", e.StepID, e.Message)
}

// Engine drives one conversation through a parsed flow, one inbound user
// message at a time. It holds no mutable state of its own: a single Engine
// may serve many conversations concurrently, while turns of the same
// conversation must be serialized by the caller.
type Engine struct {
	flow   *domain.FlowDefinition
	exec   *Executor
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// NewEngine creates an engine for a parsed, trusted flow definition.
func NewEngine(flow *domain.FlowDefinition, exec *Executor, hooks domain.LifecycleHooks, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if exec == nil {
		exec = NewExecutor(nil, logger, nil)
	}
	return &Engine{flow: flow, exec: exec, hooks: hooks, logger: logger}
}

// Flow returns the definition this engine runs.
func (e *Engine) Flow() *domain.FlowDefinition { return e.flow }

// ProcessMessage processes one inbound user message starting from
// currentStepID ("" means the flow's start step) with the given accumulated
// variables. It is the stateless entry point: responses and history start
// empty each turn. Callers that persist full state between turns should use
// ProcessTurn instead.
func (e *Engine) ProcessMessage(ctx context.Context, userMessage, currentStepID string, variables map[string]any) (domain.TurnResult, error) {
	if variables == nil {
		variables = make(map[string]any)
	}
	state := domain.ConversationState{
		CurrentStepID: currentStepID,
		Variables:     variables,
		Responses:     make(map[string]any),
		History:       nil,
	}
	result, _, err := e.ProcessTurn(ctx, userMessage, state)
	return result, err
}

// ProcessTurn processes one inbound user message against a full state
// snapshot and returns the turn result plus the successor state. The input
// state is never mutated.
//
// The loop advances through auto-advancing steps within the single turn: a
// resolved choice flows straight into the following step with the user
// input cleared, and a silent action records its result and continues.
// Message steps and unresolved choice prompts always end the turn.
func (e *Engine) ProcessTurn(ctx context.Context, userMessage string, state domain.ConversationState) (domain.TurnResult, domain.ConversationState, error) {
	stepID := state.CurrentStepID
	if stepID == "" && len(state.History) == 0 {
		stepID = e.flow.StartStepID
		state.CurrentStepID = stepID
	}

	input := userMessage
	var lastAction string
	var lastResult any

	for stepID != "" {
		step, err := e.flow.StepByID(stepID)
		if err != nil {
			// Unresolvable step id: the conversation is complete.
			e.logger.Debug("step not found, ending conversation", "step_id", stepID)
			break
		}
		e.emitStepEnter(ctx, step)

		switch s := step.(type) {
		case *domain.MessageStep:
			text := ReplaceVariables(s.Text, state)
			state = advance(state, s.Next)
			return domain.TurnResult{
				Response:     text,
				NextStepID:   s.Next,
				Variables:    state.Variables,
				Action:       lastAction,
				ActionResult: lastResult,
			}, state, nil

		case *domain.ChoiceStep:
			opt, ok := MatchOption(s, input)
			if !ok {
				// No valid selection: re-prompt with the full option list.
				// The step id stays put so the caller can retry.
				choice := e.exec.ExecuteChoiceStep(s, state).(domain.ChoiceResult)
				id := s.ID
				state.CurrentStepID = id
				return domain.TurnResult{
					Response:   choice.Question,
					NextStepID: &id,
					Variables:  state.Variables,
					Choices:    choice.Options,
				}, state, nil
			}

			state = e.exec.applyChoice(s, state, opt)
			stepID = opt.Next
			input = "" // do not re-consume the same input on the next step

		case *domain.ActionStep:
			e.emitActionCall(ctx, s, false)
			result := e.exec.ExecuteActionStep(ctx, s, state)

			switch r := result.(type) {
			case domain.FailureResult:
				e.emitActionReturn(ctx, s, true)
				return domain.TurnResult{}, state, &StepFailureError{StepID: s.ID, Message: r.Message}

			case domain.ActionCompleteResult:
				e.emitActionReturn(ctx, s, false)
				lastAction = s.Action
				lastResult = r.ActionResult
				state = SetVariable(state, s.ID, r.ActionResult)

				// Text-producing actions end the turn like a message step.
				if msg := userFacingMessage(r.ActionResult); msg != "" {
					state = advance(state, s.Next)
					return domain.TurnResult{
						Response:     msg,
						NextStepID:   s.Next,
						Variables:    state.Variables,
						Action:       s.Action,
						ActionResult: r.ActionResult,
					}, state, nil
				}

				// Silent action: keep advancing within the same turn.
				state = advance(state, s.Next)
				if s.Next == nil {
					stepID = ""
				} else {
					stepID = *s.Next
				}
				input = ""
			}
		}
	}

	// No step obtainable: the conversation is complete.
	state.CurrentStepID = ""
	return domain.TurnResult{
		Response:     "",
		NextStepID:   nil,
		Variables:    state.Variables,
		Action:       lastAction,
		ActionResult: lastResult,
	}, state, nil
}

// advance positions the state at next, or marks the conversation complete
// when next is nil.
func advance(state domain.ConversationState, next *string) domain.ConversationState {
	if next == nil {
		state.CurrentStepID = ""
		return state
	}
	return MoveToStep(state, *next)
}

// userFacingMessage extracts the reply text of an action result, if any.
func userFacingMessage(result any) string {
	m, ok := result.(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := m["message"].(string)
	return msg
}

func (e *Engine) emitStepEnter(ctx context.Context, step domain.Step) {
	if e.hooks.OnStepEnter != nil {
		e.hooks.OnStepEnter(ctx, &domain.StepEvent{StepID: step.StepID(), StepType: step.StepType()})
	}
}

func (e *Engine) emitActionCall(ctx context.Context, step *domain.ActionStep, isError bool) {
	if e.hooks.OnActionCall != nil {
		e.hooks.OnActionCall(ctx, &domain.ActionEvent{StepID: step.ID, Action: step.Action, IsError: isError})
	}
}

func (e *Engine) emitActionReturn(ctx context.Context, step *domain.ActionStep, isError bool) {
	if e.hooks.OnActionReturn != nil {
		e.hooks.OnActionReturn(ctx, &domain.ActionEvent{StepID: step.ID, Action: step.Action, IsError: isError})
	}
}
