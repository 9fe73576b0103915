package domain

// StepResult is the tagged outcome of executing a single step.
// Closed set: MessageResult, ChoiceResult, ActionCompleteResult,
// FailureResult.
type StepResult interface {
	sealedResult()
}

// MessageResult carries the rendered text of a message step.
type MessageResult struct {
	Text       string  `json:"text"`
	NextStepID *string `json:"nextStepId"`
}

func (MessageResult) sealedResult() {}

// ChoiceView is a user-facing option: rendered display text plus the raw
// value used for matching. The option's branch target stays private to the
// flow until the user actually picks.
type ChoiceView struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// ChoiceResult carries the rendered question and the option list of a
// choice step.
type ChoiceResult struct {
	Question string       `json:"question"`
	Options  []ChoiceView `json:"options"`
}

func (ChoiceResult) sealedResult() {}

// ActionCompleteResult carries the outcome of a dispatched action.
type ActionCompleteResult struct {
	Action       string  `json:"action"`
	ActionResult any     `json:"actionResult"`
	NextStepID   *string `json:"nextStepId"`
}

func (ActionCompleteResult) sealedResult() {}

// FailureResult reports that step execution failed. Runtime failures of
// external calls never surface here; they are contained inside the action
// and replaced by a degraded result.
type FailureResult struct {
	Message string `json:"error"`
}

func (FailureResult) sealedResult() {}

// TurnResult is the outcome of processing one inbound user message: the bot
// reply, where the conversation stands, and the variables accumulated so
// far. Choices is set when the turn stopped at a choice prompt; Action names
// the last action executed during the turn, if any.
type TurnResult struct {
	Response     string         `json:"response"`
	NextStepID   *string        `json:"nextStepId"`
	Variables    map[string]any `json:"variables"`
	Choices      []ChoiceView   `json:"choices,omitempty"`
	Action       string         `json:"action,omitempty"`
	ActionResult any            `json:"actionResult,omitempty"`
}
