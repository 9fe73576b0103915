// Package actions holds the dispatch table for action steps: a thread-safe
// registry of named action functions plus the built-in set (AI reply, lead
// update, lead scoring). Hosts may register additional actions or override
// the built-ins.
package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// Request carries the conversation context an action executes against.
// Meta holds host-supplied, conversation-scoped data (lead id, vertical,
// consultant info) the core itself never interprets.
type Request struct {
	StepID string
	State  domain.ConversationState
	Params map[string]any
	Meta   map[string]any
}

// Func is the signature of an action implementation. The returned map is
// the action result recorded in the conversation; a "message" key marks the
// result as user-facing text.
type Func func(ctx context.Context, req Request) (map[string]any, error)

// Registry manages the available actions.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Func)}
}

// Register adds an action to the registry. An existing action with the same
// name is overwritten.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Execute looks up an action by name and runs it.
// Returns domain.ErrUnknownAction if the name is not registered.
func (r *Registry) Execute(ctx context.Context, name string, req Request) (map[string]any, error) {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAction, name)
	}
	return fn(ctx, req)
}

// Names returns the registered action names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}
