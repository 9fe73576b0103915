package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/pkg/actions"
	"github.com/zapcampo/convoflow/pkg/domain"
)

// Executor runs individual steps against a conversation state.
type Executor struct {
	registry *actions.Registry
	logger   *slog.Logger
	meta     map[string]any
}

// NewExecutor creates an executor dispatching actions through registry.
// A nil registry leaves every action unknown.
func NewExecutor(registry *actions.Registry, logger *slog.Logger, meta map[string]any) *Executor {
	if registry == nil {
		registry = actions.NewRegistry()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{registry: registry, logger: logger, meta: meta}
}

// ExecuteMessageStep renders the message text with variables substituted.
func (e *Executor) ExecuteMessageStep(step *domain.MessageStep, state domain.ConversationState) domain.StepResult {
	return domain.MessageResult{
		Text:       ReplaceVariables(step.Text, state),
		NextStepID: step.Next,
	}
}

// ExecuteChoiceStep renders the question and option texts. The options'
// branch targets are resolved later, once the user picks.
func (e *Executor) ExecuteChoiceStep(step *domain.ChoiceStep, state domain.ConversationState) domain.StepResult {
	options := make([]domain.ChoiceView, 0, len(step.Options))
	for _, opt := range step.Options {
		options = append(options, domain.ChoiceView{
			Text:  ReplaceVariables(opt.Label, state),
			Value: opt.Value,
		})
	}
	return domain.ChoiceResult{
		Question: ReplaceVariables(step.Question, state),
		Options:  options,
	}
}

// ExecuteActionStep dispatches the named action. External-call failures are
// contained inside the action implementations; the only failure surfaced
// here is an unregistered action name, which is an authoring defect.
func (e *Executor) ExecuteActionStep(ctx context.Context, step *domain.ActionStep, state domain.ConversationState) domain.StepResult {
	result, err := e.registry.Execute(ctx, step.Action, actions.Request{
		StepID: step.ID,
		State:  state,
		Params: step.Params,
		Meta:   e.meta,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAction) {
			return domain.FailureResult{Message: fmt.Sprintf("Unknown action: %s", step.Action)}
		}
		return domain.FailureResult{Message: fmt.Sprintf("Failed to execute action step: %v", err)}
	}

	return domain.ActionCompleteResult{
		Action:       step.Action,
		ActionResult: result,
		NextStepID:   step.Next,
	}
}

// MatchOption resolves user input against a choice step's options.
// Matching is on value or label, trimmed and case-insensitive; both engine
// entry points share this single rule.
func MatchOption(step *domain.ChoiceStep, input string) (domain.ChoiceOption, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return domain.ChoiceOption{}, false
	}
	for _, opt := range step.Options {
		value := strings.ToLower(strings.TrimSpace(opt.Value))
		label := strings.ToLower(strings.TrimSpace(opt.Label))
		if normalized == value || normalized == label {
			return opt, true
		}
	}
	return domain.ChoiceOption{}, false
}

// ProcessChoiceResponse validates a user's selection against a choice step
// and, on a match, records the response, sets the selection variables and
// transitions to the option's branch target.
func (e *Executor) ProcessChoiceResponse(step *domain.ChoiceStep, state domain.ConversationState, userChoice string) (domain.ConversationState, error) {
	opt, ok := MatchOption(step, userChoice)
	if !ok {
		values := make([]string, 0, len(step.Options))
		for _, o := range step.Options {
			values = append(values, o.Value)
		}
		return state, fmt.Errorf("invalid choice %q, available options: %s", userChoice, strings.Join(values, ", "))
	}
	return e.applyChoice(step, state, opt), nil
}

// applyChoice performs the three-part transition of a resolved choice:
// record the response, expose the selection as variables, move forward.
func (e *Executor) applyChoice(step *domain.ChoiceStep, state domain.ConversationState, opt domain.ChoiceOption) domain.ConversationState {
	next := RecordResponse(state, step.ID, opt.Value)
	next = SetVariables(next, map[string]any{
		step.ID:           opt.Value,
		step.ID + "_text": opt.Label,
	})
	if opt.Next == "" {
		// Terminal option: the conversation ends here.
		next.CurrentStepID = ""
		return next
	}
	return MoveToStep(next, opt.Next)
}

// ProcessTextResponse records a free-text answer on a non-choice step and
// advances to its next step. Choice steps must go through
// ProcessChoiceResponse.
func (e *Executor) ProcessTextResponse(step domain.Step, state domain.ConversationState, userText string) (domain.ConversationState, error) {
	var nextID *string
	switch s := step.(type) {
	case *domain.ChoiceStep:
		return state, errors.New("use ProcessChoiceResponse for choice steps")
	case *domain.MessageStep:
		nextID = s.Next
	case *domain.ActionStep:
		nextID = s.Next
	}

	if nextID == nil {
		return state, errors.New("no next step defined")
	}

	next := RecordResponse(state, step.StepID(), userText)
	next = SetVariable(next, step.StepID(), userText)
	return MoveToStep(next, *nextID), nil
}
