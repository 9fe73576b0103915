package domain

import "errors"

// ErrStepNotFound is returned when a step id does not exist in a flow.
var ErrStepNotFound = errors.New("step not found")

// ErrConversationNotFound is returned by state stores when a conversation id
// has no persisted state.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrUnknownAction is returned when an action step names an action that is
// not registered. This is an authoring defect, not a runtime hiccup, so it
// is surfaced instead of being swallowed.
var ErrUnknownAction = errors.New("unknown action")
