package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapcampo/convoflow/pkg/adapters/memory"
	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/persistence/middleware"
)

func key(b byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = b
	}
	return k
}

func sensitiveState() domain.ConversationState {
	return domain.ConversationState{
		CurrentStepID: "idade",
		Variables: map[string]any{
			"cpf":  "123.456.789-00",
			"lead": map[string]any{"telefone": "+5511999999999", "cidade": "Recife"},
		},
		Responses: map[string]any{"email_contato": "ana@example.com", "interesse": "comprar"},
	}
}

func TestEncryption_RoundTrip(t *testing.T) {
	inner := memory.NewStore()
	store := middleware.Chain(inner, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: key(1),
	}))
	ctx := context.Background()

	original := sensitiveState()
	require.NoError(t, store.Save(ctx, "conv-1", original))

	// What the inner store sees is an opaque envelope.
	raw, err := inner.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "encrypted", raw.CurrentStepID)
	assert.Contains(t, raw.Variables, "__encrypted__")
	assert.NotContains(t, raw.Variables, "cpf")
	assert.Empty(t, raw.Responses)

	// The wrapped store round-trips the real state.
	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "idade", loaded.CurrentStepID)
	assert.Equal(t, "123.456.789-00", loaded.Variables["cpf"])
	assert.Equal(t, "ana@example.com", loaded.Responses["email_contato"])
}

func TestEncryption_WrongKeyFails(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()

	writer := middleware.Chain(inner, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)}))
	require.NoError(t, writer.Save(ctx, "conv-1", sensitiveState()))

	reader := middleware.Chain(inner, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(2)}))
	_, err := reader.Load(ctx, "conv-1")
	assert.ErrorContains(t, err, "failed to decrypt state")
}

func TestEncryption_KeyRotation(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()

	oldStore := middleware.Chain(inner, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)}))
	require.NoError(t, oldStore.Save(ctx, "conv-1", sensitiveState()))

	// After rotation the old key rides along as a fallback.
	rotated := middleware.Chain(inner, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    key(2),
		FallbackKeys: [][]byte{key(1)},
	}))

	loaded, err := rotated.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "idade", loaded.CurrentStepID)
}

func TestEncryption_FailsSecureOnPlainState(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()

	// A state written without encryption must not pass through silently.
	require.NoError(t, inner.Save(ctx, "conv-1", sensitiveState()))

	store := middleware.Chain(inner, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)}))
	_, err := store.Load(ctx, "conv-1")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryption_RejectsShortKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}

func TestPII_MasksMatchingKeys(t *testing.T) {
	inner := memory.NewStore()
	store := middleware.Chain(inner, middleware.NewPIIMiddleware([]string{`cpf`, `telefone`, `^email`}))
	ctx := context.Background()

	original := sensitiveState()
	require.NoError(t, store.Save(ctx, "conv-1", original))

	stored, err := inner.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "***", stored.Variables["cpf"])
	assert.Equal(t, "***", stored.Responses["email_contato"])
	assert.Equal(t, "comprar", stored.Responses["interesse"])

	// Nested maps are masked too.
	lead := stored.Variables["lead"].(map[string]any)
	assert.Equal(t, "***", lead["telefone"])
	assert.Equal(t, "Recife", lead["cidade"])
}

func TestPII_LeavesCallerStateUntouched(t *testing.T) {
	store := middleware.Chain(memory.NewStore(), middleware.NewPIIMiddleware([]string{`cpf`, `telefone`}))

	original := sensitiveState()
	require.NoError(t, store.Save(context.Background(), "conv-1", original))

	assert.Equal(t, "123.456.789-00", original.Variables["cpf"])
	lead := original.Variables["lead"].(map[string]any)
	assert.Equal(t, "+5511999999999", lead["telefone"])
}

func TestChain_Order(t *testing.T) {
	inner := memory.NewStore()
	// PII first (outermost), then encryption: the envelope hides everything
	// either way, but masking must happen before ciphertext is built.
	store := middleware.Chain(inner,
		middleware.NewPIIMiddleware([]string{`cpf`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)}),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv-1", sensitiveState()))

	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Variables["cpf"], "masked before encryption, so the plaintext is gone")
	assert.Equal(t, "comprar", loaded.Responses["interesse"])
}
