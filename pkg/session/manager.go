// Package session orchestrates durable conversations on top of an engine
// and a state store. The engine requires turns of one conversation to be
// processed serially; the Manager enforces that with per-conversation
// locks, garbage collected by reference counting, and optionally extends
// the guarantee across replicas with a distributed locker.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	convoflow "github.com/zapcampo/convoflow"
	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs conversations against a flow engine and persists their
// state between turns.
type Manager struct {
	engine *convoflow.Engine
	store  ports.StateStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager binding an engine to a persistence store.
func NewManager(engine *convoflow.Engine, store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		engine: engine,
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock entry.mu and call release(conversationID) after unlocking.
func (m *Manager) acquire(conversationID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[conversationID]
	if !exists {
		entry = &lockEntry{}
		m.locks[conversationID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[conversationID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, conversationID)
	}
}

// Start opens a new conversation, runs the opening turn (no user input)
// and persists the resulting state. Returns the generated conversation ID.
func (m *Manager) Start(ctx context.Context) (string, domain.TurnResult, error) {
	conversationID := uuid.NewString()

	var result domain.TurnResult
	err := m.withLock(ctx, conversationID, func(ctx context.Context) error {
		state := m.engine.NewConversation()
		var err error
		var next domain.ConversationState
		result, next, err = m.engine.ProcessTurn(ctx, "", state)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, conversationID, next)
	})
	if err != nil {
		return "", domain.TurnResult{}, err
	}
	return conversationID, result, nil
}

// HandleMessage processes one user message for an existing conversation,
// persisting the successor state before returning.
func (m *Manager) HandleMessage(ctx context.Context, conversationID, userMessage string) (domain.TurnResult, error) {
	userMessage, err := SanitizeInput(userMessage)
	if err != nil {
		return domain.TurnResult{}, err
	}

	var result domain.TurnResult
	err = m.withLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}

		var next domain.ConversationState
		result, next, err = m.engine.ProcessTurn(ctx, userMessage, state)
		if err != nil {
			return err
		}

		if err := m.store.Save(ctx, conversationID, next); err != nil {
			return fmt.Errorf("failed to persist conversation: %w", err)
		}
		return nil
	})
	return result, err
}

// Status returns the persisted state of a conversation.
func (m *Manager) Status(ctx context.Context, conversationID string) (domain.ConversationState, error) {
	var state domain.ConversationState
	err := m.withLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, conversationID)
		return err
	})
	return state, err
}

// End removes a conversation from the store.
func (m *Manager) End(ctx context.Context, conversationID string) error {
	return m.withLock(ctx, conversationID, func(ctx context.Context) error {
		return m.store.Delete(ctx, conversationID)
	})
}

// Engine returns the underlying flow engine.
func (m *Manager) Engine() *convoflow.Engine {
	return m.engine
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// withLock executes fn while holding the lock for the conversation.
func (m *Manager) withLock(ctx context.Context, conversationID string, fn func(context.Context) error) error {
	entry := m.acquire(conversationID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(conversationID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, conversationID, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversation_id", conversationID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
