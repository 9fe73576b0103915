package ports

import (
	"context"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// GenerateRequest carries everything an AI provider needs to produce a
// contextual reply: the conversation so far plus host-supplied lead and
// consultant context.
type GenerateRequest struct {
	State      domain.ConversationState
	Lead       map[string]any
	Consultant map[string]any
	Params     map[string]any
}

// AIGenerator produces natural-language text personalized to the
// accumulated responses and variables of a conversation. Failures are
// contained by the calling action, never shown to the end user.
type AIGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// LeadStore applies record mutations requested by action steps against an
// external lead/CRM store.
type LeadStore interface {
	UpdateLead(ctx context.Context, leadID string, fields map[string]any) error
}
