package ports

import (
	"context"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// StateStore persists conversation state between turns. The engine itself
// never touches a store; the session layer saves after each processed
// message so a conversation survives process restarts.
type StateStore interface {
	// Save persists the state for a conversation ID.
	Save(ctx context.Context, conversationID string, state domain.ConversationState) error

	// Load retrieves the state for a conversation ID.
	// Returns domain.ErrConversationNotFound if it does not exist.
	Load(ctx context.Context, conversationID string) (domain.ConversationState, error)

	// Delete removes the state for a conversation ID.
	Delete(ctx context.Context, conversationID string) error
}

// FlowSource supplies raw flow definition blobs by id. Implemented by
// whatever owns flow storage (a database row, a file, an HTTP call).
type FlowSource interface {
	GetFlow(ctx context.Context, flowID string) ([]byte, error)
}
