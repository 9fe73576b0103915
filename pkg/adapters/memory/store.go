package memory

import (
	"context"
	"sync"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.ConversationState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.ConversationState),
	}
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, conversationID string, state domain.ConversationState) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := copyState(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = copied
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, conversationID string) (domain.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[conversationID]
	if !ok {
		return domain.ConversationState{}, domain.ErrConversationNotFound
	}

	// Copy on read so the caller can't mutate stored maps.
	return copyState(state), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns the IDs of all stored conversations.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func copyState(state domain.ConversationState) domain.ConversationState {
	copied := state
	copied.Variables = make(map[string]any, len(state.Variables))
	for k, v := range state.Variables {
		copied.Variables[k] = v
	}
	copied.Responses = make(map[string]any, len(state.Responses))
	for k, v := range state.Responses {
		copied.Responses[k] = v
	}
	copied.History = make([]domain.HistoryEntry, len(state.History))
	copy(copied.History, state.History)
	return copied
}
