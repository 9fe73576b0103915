package session_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	convoflow "github.com/zapcampo/convoflow"
	"github.com/zapcampo/convoflow/pkg/adapters/memory"
	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/ports"
	"github.com/zapcampo/convoflow/pkg/session"
)

const flowJSON = `{
	"versao": "1.0",
	"inicio": "boas_vindas",
	"passos": [
		{"id": "boas_vindas", "tipo": "mensagem", "mensagem": "Olá!", "proxima": "interesse"},
		{"id": "interesse", "tipo": "escolha", "pergunta": "Tem interesse?", "opcoes": [
			{"texto": "Sim", "valor": "sim", "proxima": "despedida"},
			{"texto": "Não", "valor": "nao"}
		]},
		{"id": "despedida", "tipo": "mensagem", "mensagem": "Até logo!"}
	]
}`

func newManager(t *testing.T, opts ...session.Option) *session.Manager {
	t.Helper()

	engine, err := convoflow.New([]byte(flowJSON))
	require.NoError(t, err)
	return session.NewManager(engine, memory.NewStore(), opts...)
}

func TestManager_StartRunsOpeningTurn(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	id, result, err := mgr.Start(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "Olá!", result.Response)
	require.NotNil(t, result.NextStepID)
	assert.Equal(t, "interesse", *result.NextStepID)

	state, err := mgr.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "interesse", state.CurrentStepID)
}

func TestManager_HandleMessage(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	id, _, err := mgr.Start(ctx)
	require.NoError(t, err)

	result, err := mgr.HandleMessage(ctx, id, "sim")
	require.NoError(t, err)
	assert.Equal(t, "Até logo!", result.Response)
	assert.Nil(t, result.NextStepID)

	state, err := mgr.Status(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.Completed())
	assert.Equal(t, "sim", state.Responses["interesse"])
}

func TestManager_HandleMessage_UnknownConversation(t *testing.T) {
	mgr := newManager(t)

	_, err := mgr.HandleMessage(context.Background(), "ghost", "oi")
	assert.True(t, errors.Is(err, domain.ErrConversationNotFound))
}

func TestManager_HandleMessage_RejectsOversizedInput(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	id, _, err := mgr.Start(ctx)
	require.NoError(t, err)

	_, err = mgr.HandleMessage(ctx, id, strings.Repeat("a", session.DefaultMaxInputSize+1))
	assert.True(t, errors.Is(err, session.ErrInputTooLarge))

	// The rejected message must not have advanced the conversation.
	state, err := mgr.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "interesse", state.CurrentStepID)
}

func TestManager_End(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	id, _, err := mgr.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.End(ctx, id))

	_, err = mgr.Status(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrConversationNotFound))
}

// overlapStore counts how many operations run at the same time, exposing
// missing per-conversation serialization.
type overlapStore struct {
	ports.StateStore
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *overlapStore) Save(ctx context.Context, id string, state domain.ConversationState) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		max := s.maxSeen.Load()
		if n <= max || s.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}
	return s.StateStore.Save(ctx, id, state)
}

func TestManager_SerializesTurnsPerConversation(t *testing.T) {
	engine, err := convoflow.New([]byte(flowJSON))
	require.NoError(t, err)

	store := &overlapStore{StateStore: memory.NewStore()}
	mgr := session.NewManager(engine, store)
	ctx := context.Background()

	id, _, err := mgr.Start(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Outcomes vary with ordering; overlap is what must not happen.
			mgr.HandleMessage(ctx, id, "nao")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, store.maxSeen.Load(), int32(1))
}

// recordingLocker captures the keys a Manager locks.
type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	released int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()

	return func(ctx context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_UsesDistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := newManager(t, session.WithLocker(locker))
	ctx := context.Background()

	id, _, err := mgr.Start(ctx)
	require.NoError(t, err)

	_, err = mgr.HandleMessage(ctx, id, "sim")
	require.NoError(t, err)

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Equal(t, []string{id, id}, locker.locked)
	assert.Equal(t, 2, locker.released, "every acquired lock must be released")
}
