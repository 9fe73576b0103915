package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapcampo/convoflow/internal/runtime"
	"github.com/zapcampo/convoflow/pkg/actions"
	"github.com/zapcampo/convoflow/pkg/domain"
)

func newEngine(flow *domain.FlowDefinition, reg *actions.Registry, hooks domain.LifecycleHooks) *runtime.Engine {
	return runtime.NewEngine(flow, runtime.NewExecutor(reg, nil, nil), hooks, nil)
}

func twoStepFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		Version:     "1.0",
		StartStepID: "m1",
		Steps: []domain.Step{
			&domain.MessageStep{ID: "m1", Text: "Hi", Next: ptr("c1")},
			&domain.ChoiceStep{ID: "c1", Question: "Pick", Options: []domain.ChoiceOption{
				{Label: "A", Value: "a"},
			}},
		},
	}
}

func TestProcessMessage_EndToEnd(t *testing.T) {
	eng := newEngine(twoStepFlow(), nil, domain.LifecycleHooks{})
	ctx := context.Background()

	// Opening turn: the start message is rendered and the turn ends.
	result, err := eng.ProcessMessage(ctx, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hi", result.Response)
	require.NotNil(t, result.NextStepID)
	assert.Equal(t, "c1", *result.NextStepID)

	// Picking the terminal option ends the conversation.
	result, err = eng.ProcessMessage(ctx, "a", "c1", result.Variables)
	require.NoError(t, err)
	assert.Equal(t, "", result.Response)
	assert.Nil(t, result.NextStepID)
	assert.Equal(t, "a", result.Variables["c1"])
}

func TestProcessTurn_ChoiceRePrompt(t *testing.T) {
	eng := newEngine(twoStepFlow(), nil, domain.LifecycleHooks{})
	ctx := context.Background()

	state := runtime.NewState("c1")
	state.History = append(state.History, domain.HistoryEntry{StepID: "m1"})

	result, next, err := eng.ProcessTurn(ctx, "resposta inválida", state)
	require.NoError(t, err)

	assert.Equal(t, "Pick", result.Response)
	require.Len(t, result.Choices, 1)
	assert.Equal(t, "a", result.Choices[0].Value)
	assert.Equal(t, "c1", next.CurrentStepID, "re-prompt keeps the step in place")
	require.NotNil(t, result.NextStepID)
	assert.Equal(t, "c1", *result.NextStepID)
}

func TestProcessTurn_CaseInsensitiveChoice(t *testing.T) {
	flow := &domain.FlowDefinition{
		Version:     "1.0",
		StartStepID: "c1",
		Steps: []domain.Step{
			&domain.ChoiceStep{ID: "c1", Question: "Pick", Options: []domain.ChoiceOption{
				{Label: "Sim", Value: "sim", Next: "s2"},
			}},
			&domain.MessageStep{ID: "s2", Text: "Feito"},
		},
	}
	eng := newEngine(flow, nil, domain.LifecycleHooks{})
	ctx := context.Background()

	for _, input := range []string{"sim", "Sim", "SIM"} {
		state := runtime.NewState("c1")
		result, next, err := eng.ProcessTurn(ctx, input, state)
		require.NoError(t, err)
		assert.Equal(t, "Feito", result.Response, "input %q", input)
		assert.True(t, next.Completed())
	}
}

func TestProcessTurn_ResolvedChoiceAdvancesWithClearedInput(t *testing.T) {
	// After a resolved choice the user input must not leak into the next
	// choice step of the same turn.
	flow := &domain.FlowDefinition{
		Version:     "1.0",
		StartStepID: "c1",
		Steps: []domain.Step{
			&domain.ChoiceStep{ID: "c1", Question: "Primeira?", Options: []domain.ChoiceOption{
				{Label: "Sim", Value: "sim", Next: "c2"},
			}},
			&domain.ChoiceStep{ID: "c2", Question: "Segunda?", Options: []domain.ChoiceOption{
				{Label: "Sim", Value: "sim", Next: "fim"},
			}},
			&domain.MessageStep{ID: "fim", Text: "Fim"},
		},
	}
	eng := newEngine(flow, nil, domain.LifecycleHooks{})

	result, next, err := eng.ProcessTurn(context.Background(), "sim", runtime.NewState("c1"))
	require.NoError(t, err)

	// "sim" resolved c1 only; c2 re-prompts instead of consuming it again.
	assert.Equal(t, "Segunda?", result.Response)
	assert.Equal(t, "c2", next.CurrentStepID)
	assert.Equal(t, "sim", next.Responses["c1"])
	assert.NotContains(t, next.Responses, "c2")
}

func TestProcessTurn_SilentActionAdvances(t *testing.T) {
	reg := actions.NewRegistry()
	reg.Register("marcar", func(ctx context.Context, req actions.Request) (map[string]any, error) {
		return map[string]any{"done": true}, nil
	})

	flow := &domain.FlowDefinition{
		Version:     "1.0",
		StartStepID: "a1",
		Steps: []domain.Step{
			&domain.ActionStep{ID: "a1", Action: "marcar", Next: ptr("m1")},
			&domain.MessageStep{ID: "m1", Text: "Depois da ação"},
		},
	}
	eng := newEngine(flow, reg, domain.LifecycleHooks{})

	result, next, err := eng.ProcessTurn(context.Background(), "", runtime.NewState("a1"))
	require.NoError(t, err)

	assert.Equal(t, "Depois da ação", result.Response, "silent action flows into the message in one turn")
	assert.Equal(t, "marcar", result.Action)
	assert.Equal(t, map[string]any{"done": true}, result.ActionResult)
	assert.Equal(t, map[string]any{"done": true}, next.Variables["a1"])
	assert.True(t, next.Completed())
}

func TestProcessTurn_MessageProducingActionEndsTurn(t *testing.T) {
	reg := actions.NewRegistry()
	reg.Register("responder", func(ctx context.Context, req actions.Request) (map[string]any, error) {
		return map[string]any{"message": "Resposta gerada"}, nil
	})

	flow := &domain.FlowDefinition{
		Version:     "1.0",
		StartStepID: "a1",
		Steps: []domain.Step{
			&domain.ActionStep{ID: "a1", Action: "responder", Next: ptr("m1")},
			&domain.MessageStep{ID: "m1", Text: "Nunca nesta volta"},
		},
	}
	eng := newEngine(flow, reg, domain.LifecycleHooks{})

	result, next, err := eng.ProcessTurn(context.Background(), "", runtime.NewState("a1"))
	require.NoError(t, err)

	assert.Equal(t, "Resposta gerada", result.Response)
	require.NotNil(t, result.NextStepID)
	assert.Equal(t, "m1", *result.NextStepID)
	assert.Equal(t, "m1", next.CurrentStepID, "turn stops before the follow-up message")
}

func TestProcessTurn_UnknownActionFails(t *testing.T) {
	flow := &domain.FlowDefinition{
		Version:     "1.0",
		StartStepID: "a1",
		Steps: []domain.Step{
			&domain.ActionStep{ID: "a1", Action: "inexistente", Next: nil},
		},
	}
	eng := newEngine(flow, actions.NewRegistry(), domain.LifecycleHooks{})

	_, _, err := eng.ProcessTurn(context.Background(), "", runtime.NewState("a1"))
	require.Error(t, err)

	var stepErr *runtime.StepFailureError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "a1", stepErr.StepID)
	assert.Contains(t, stepErr.Message, "Unknown action: inexistente")
}

func TestProcessTurn_UnresolvableStepEndsConversation(t *testing.T) {
	eng := newEngine(twoStepFlow(), nil, domain.LifecycleHooks{})

	state := runtime.NewState("fantasma")
	result, next, err := eng.ProcessTurn(context.Background(), "", state)
	require.NoError(t, err)

	assert.Empty(t, result.Response)
	assert.Nil(t, result.NextStepID)
	assert.True(t, next.Completed())
}

func TestProcessTurn_CompletedStateStaysCompleted(t *testing.T) {
	eng := newEngine(twoStepFlow(), nil, domain.LifecycleHooks{})

	state := runtime.NewState("")
	state.History = append(state.History, domain.HistoryEntry{StepID: "m1"})

	result, next, err := eng.ProcessTurn(context.Background(), "oi", state)
	require.NoError(t, err)
	assert.Empty(t, result.Response)
	assert.True(t, next.Completed())
}

func TestProcessTurn_EmitsLifecycleHooks(t *testing.T) {
	reg := actions.NewRegistry()
	reg.Register("marcar", func(ctx context.Context, req actions.Request) (map[string]any, error) {
		return map[string]any{"done": true}, nil
	})

	flow := &domain.FlowDefinition{
		Version:     "1.0",
		StartStepID: "a1",
		Steps: []domain.Step{
			&domain.ActionStep{ID: "a1", Action: "marcar", Next: ptr("m1")},
			&domain.MessageStep{ID: "m1", Text: "fim"},
		},
	}

	var entered []string
	var calls, returns int
	hooks := domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			entered = append(entered, e.StepID)
		},
		OnActionCall: func(ctx context.Context, e *domain.ActionEvent) { calls++ },
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			returns++
			assert.False(t, e.IsError)
		},
	}

	eng := newEngine(flow, reg, hooks)
	_, _, err := eng.ProcessTurn(context.Background(), "", runtime.NewState("a1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "m1"}, entered)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, returns)
}
