package domain

import "time"

// HistoryEntry records one visited step. Response is present only for
// entries created by recording a user answer.
type HistoryEntry struct {
	StepID    string    `json:"stepId"`
	Timestamp time.Time `json:"timestamp"`
	Response  any       `json:"response,omitempty"`
}

// ConversationState is the snapshot of one in-progress conversation.
// The engine treats it as an immutable value: every transition returns a new
// state and leaves the input untouched. Durable storage between turns is the
// caller's job.
type ConversationState struct {
	CurrentStepID string         `json:"currentStepId"`
	Variables     map[string]any `json:"variables"`
	Responses     map[string]any `json:"responses"`
	History       []HistoryEntry `json:"history"`
}

// Completed reports whether the conversation has reached a terminal step.
func (s ConversationState) Completed() bool {
	return s.CurrentStepID == ""
}
