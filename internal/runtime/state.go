// Package runtime implements the execution core: pure state transitions,
// per-step-type executors and the turn-loop engine. All functions here take
// ConversationState by value and return a new value; callers own the old
// snapshot untouched.
package runtime

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// NewState creates a fresh conversation positioned at the start step, with
// empty variables, responses and history.
func NewState(startStepID string) domain.ConversationState {
	return domain.ConversationState{
		CurrentStepID: startStepID,
		Variables:     make(map[string]any),
		Responses:     make(map[string]any),
		History:       nil,
	}
}

var variableToken = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ReplaceVariables substitutes {{path}} tokens in text with values from
// state.Variables. Paths are dot-separated (e.g. "lead.name") and resolved
// segment by segment. A token whose path is missing or nil stays verbatim
// in the output, so broken substitutions are visible in the rendered text
// instead of silently blanking.
func ReplaceVariables(text string, state domain.ConversationState) string {
	return variableToken.ReplaceAllStringFunc(text, func(token string) string {
		path := strings.TrimSpace(token[2 : len(token)-2])
		value, ok := LookupVariable(path, state.Variables)
		if !ok || value == nil {
			return token
		}
		return stringify(value)
	})
}

// LookupVariable walks a dot-separated path through nested maps.
// Resolution fails as soon as a segment is missing or the current value is
// not a map.
func LookupVariable(path string, variables map[string]any) (any, bool) {
	var value any = variables
	for _, part := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// SetVariable returns a new state with one variable set.
func SetVariable(state domain.ConversationState, name string, value any) domain.ConversationState {
	return SetVariables(state, map[string]any{name: value})
}

// SetVariables returns a new state with the given variables shallow-merged
// over the existing ones. New keys win on conflict.
func SetVariables(state domain.ConversationState, variables map[string]any) domain.ConversationState {
	next := state
	next.Variables = cloneMap(state.Variables)
	for k, v := range variables {
		next.Variables[k] = v
	}
	return next
}

// RecordResponse returns a new state with the user response recorded under
// the step id and appended to history.
func RecordResponse(state domain.ConversationState, stepID string, response any) domain.ConversationState {
	next := state
	next.Responses = cloneMap(state.Responses)
	next.Responses[stepID] = response
	next.History = appendHistory(state.History, domain.HistoryEntry{
		StepID:    stepID,
		Timestamp: time.Now(),
		Response:  response,
	})
	return next
}

// MoveToStep returns a new state positioned at nextStepID, with the visit
// appended to history.
func MoveToStep(state domain.ConversationState, nextStepID string) domain.ConversationState {
	next := state
	next.CurrentStepID = nextStepID
	next.History = appendHistory(state.History, domain.HistoryEntry{
		StepID:    nextStepID,
		Timestamp: time.Now(),
	})
	return next
}

// ConversationContext is a read-only projection of a conversation used by
// AI prompts and status endpoints.
type ConversationContext struct {
	Variables  map[string]any `json:"variables"`
	Responses  map[string]any `json:"responses"`
	StepCount  int            `json:"stepCount"`
	LastStepID string         `json:"lastStepId,omitempty"`
}

// Context projects the state into its read-only summary form.
func Context(state domain.ConversationState) ConversationContext {
	ctx := ConversationContext{
		Variables: state.Variables,
		Responses: state.Responses,
		StepCount: len(state.History),
	}
	if n := len(state.History); n > 0 {
		ctx.LastStepID = state.History[n-1].StepID
	}
	return ctx
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func appendHistory(history []domain.HistoryEntry, entry domain.HistoryEntry) []domain.HistoryEntry {
	next := make([]domain.HistoryEntry, len(history), len(history)+1)
	copy(next, history)
	return append(next, entry)
}
