package convoflow

import (
	"context"
	"log/slog"

	"github.com/zapcampo/convoflow/internal/compiler"
	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/internal/runtime"
	"github.com/zapcampo/convoflow/pkg/actions"
	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/ports"
	"github.com/zapcampo/convoflow/pkg/validator"
)

// Engine is the high-level entry point of the library: a parsed flow plus
// the collaborators its action steps need. Safe for concurrent use across
// conversations; turns of one conversation must be serialized by the caller.
type Engine struct {
	rt       *runtime.Engine
	flow     *domain.FlowDefinition
	registry *actions.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	ai       ports.AIGenerator
	leads    ports.LeadStore
	meta     map[string]any
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a structured logger for the engine and its actions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithAIGenerator plugs in the AI provider used by gerar_resposta_ia.
// Without one, the action replies with the vertical's fallback template.
func WithAIGenerator(gen ports.AIGenerator) Option {
	return func(e *Engine) { e.ai = gen }
}

// WithLeadStore plugs in the record store used by atualizar_lead.
func WithLeadStore(store ports.LeadStore) Option {
	return func(e *Engine) { e.leads = store }
}

// WithActions replaces the default action registry entirely.
func WithActions(registry *actions.Registry) Option {
	return func(e *Engine) { e.registry = registry }
}

// WithMetadata attaches conversation-scoped host data (lead id, vertical,
// consultant info) made available to action implementations.
func WithMetadata(meta map[string]any) Option {
	return func(e *Engine) { e.meta = meta }
}

// New parses a JSON flow definition and builds an engine for it.
// Authoring errors (bad schema, dangling references, cycles) are returned
// as a single joined error and the engine is not created.
func New(definition []byte, opts ...Option) (*Engine, error) {
	flow, err := compiler.ParseFlowDefinition(definition)
	if err != nil {
		return nil, err
	}
	return NewFromDefinition(flow, opts...), nil
}

// NewFromDefinition builds an engine from an already-parsed, trusted flow.
func NewFromDefinition(flow *domain.FlowDefinition, opts ...Option) *Engine {
	e := &Engine{flow: flow}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.registry == nil {
		e.registry = actions.NewDefaultRegistry(actions.Config{
			AI:     e.ai,
			Leads:  e.leads,
			Logger: e.logger,
		})
	}
	exec := runtime.NewExecutor(e.registry, e.logger, e.meta)
	e.rt = runtime.NewEngine(flow, exec, e.hooks, e.logger)
	return e
}

// Flow returns the parsed definition.
func (e *Engine) Flow() *domain.FlowDefinition { return e.flow }

// ProcessMessage processes one inbound user message. currentStepID ""
// starts the flow from the beginning; variables carry over the values
// accumulated by previous turns.
func (e *Engine) ProcessMessage(ctx context.Context, userMessage, currentStepID string, variables map[string]any) (domain.TurnResult, error) {
	return e.rt.ProcessMessage(ctx, userMessage, currentStepID, variables)
}

// ProcessTurn processes one inbound user message against a full persisted
// state snapshot, returning the successor snapshot alongside the result.
func (e *Engine) ProcessTurn(ctx context.Context, userMessage string, state domain.ConversationState) (domain.TurnResult, domain.ConversationState, error) {
	return e.rt.ProcessTurn(ctx, userMessage, state)
}

// NewConversation returns a fresh state positioned at the flow's start step.
func (e *Engine) NewConversation() domain.ConversationState {
	return runtime.NewState(e.flow.StartStepID)
}

// ParseFlowDefinition parses and cross-checks a JSON flow document.
func ParseFlowDefinition(definition []byte) (*domain.FlowDefinition, error) {
	return compiler.ParseFlowDefinition(definition)
}

// Validate runs the full validation battery over raw, untrusted input (the
// result of decoding a JSON or YAML document).
func Validate(raw any) validator.Result {
	return validator.Validate(raw)
}

// IsValidFlow reports whether raw passes validation without errors.
func IsValidFlow(raw any) bool {
	return validator.IsValid(raw)
}
