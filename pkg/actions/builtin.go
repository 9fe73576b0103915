package actions

import (
	"context"
	"log/slog"

	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/pkg/ports"
)

// Built-in action names as they appear in flow definitions.
const (
	GenerateAIReply = "gerar_resposta_ia"
	UpdateLead      = "atualizar_lead"
	CalculateScore  = "calcular_score"
)

// Config wires the external collaborators of the built-in actions.
// Nil collaborators degrade gracefully: the AI action falls back to a
// template, the lead action reports updated=false.
type Config struct {
	AI     ports.AIGenerator
	Leads  ports.LeadStore
	Logger *slog.Logger
}

// NewDefaultRegistry returns a registry with the three built-in actions
// registered.
func NewDefaultRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	r := NewRegistry()
	r.Register(GenerateAIReply, generateReply(cfg))
	r.Register(UpdateLead, updateLead(cfg))
	r.Register(CalculateScore, calculateScore())
	return r
}

// generateReply produces a contextual AI reply. Provider failures are
// contained here: the conversation continues with a vertical-keyed fallback
// template instead of aborting.
func generateReply(cfg Config) Func {
	return func(ctx context.Context, req Request) (map[string]any, error) {
		vertical := resolveVertical(req)

		if cfg.AI == nil {
			return map[string]any{"message": FallbackTemplate(vertical)}, nil
		}

		text, err := cfg.AI.Generate(ctx, ports.GenerateRequest{
			State:      req.State,
			Lead:       asMap(req.Meta["lead"]),
			Consultant: asMap(req.Meta["consultant"]),
			Params:     req.Params,
		})
		if err != nil {
			cfg.Logger.Warn("AI generation failed, using fallback template",
				"step_id", req.StepID, "vertical", vertical, "error", err)
			return map[string]any{"message": FallbackTemplate(vertical)}, nil
		}

		return map[string]any{"message": text}, nil
	}
}

// updateLead pushes conversation fields to the external lead store.
// Store failures are contained and reported as updated=false.
func updateLead(cfg Config) Func {
	return func(ctx context.Context, req Request) (map[string]any, error) {
		leadID, _ := req.Meta["leadId"].(string)
		fields := asMap(req.Params["fields"])
		if fields == nil {
			// Default: persist the recorded responses as lead fields.
			fields = req.State.Responses
		}

		if cfg.Leads == nil || leadID == "" {
			cfg.Logger.Debug("lead update skipped", "lead_id", leadID)
			return map[string]any{"updated": false}, nil
		}

		if err := cfg.Leads.UpdateLead(ctx, leadID, fields); err != nil {
			cfg.Logger.Warn("lead update failed", "lead_id", leadID, "error", err)
			return map[string]any{"updated": false}, nil
		}
		return map[string]any{"updated": true}, nil
	}
}

// calculateScore is the only fully in-core action: 10 points per recorded
// response plus rule-table bonuses from parameters, capped at 100.
func calculateScore() Func {
	return func(ctx context.Context, req Request) (map[string]any, error) {
		score := len(req.State.Responses) * 10

		if rules := asMap(req.Params["rules"]); rules != nil {
			for key, points := range rules {
				if truthy(req.State.Responses[key]) {
					score += asInt(points)
				}
			}
		}

		if score > 100 {
			score = 100
		}
		return map[string]any{"score": score}, nil
	}
}

func resolveVertical(req Request) string {
	if v, ok := req.Params["vertical"].(string); ok && v != "" {
		return v
	}
	if v, ok := req.Meta["vertical"].(string); ok && v != "" {
		return v
	}
	if consultant := asMap(req.Meta["consultant"]); consultant != nil {
		if v, ok := consultant["vertical"].(string); ok && v != "" {
			return v
		}
	}
	return defaultVertical
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// truthy mirrors the loose semantics of the original scoring rules: a
// response counts unless it is absent, nil, false, zero or empty.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

func asInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return 0
	}
}
