package domain

import "encoding/json"

// Step type tags as they appear on the wire. The Portuguese names are the
// original authoring format; definitions stored by existing flows parse
// unchanged.
const (
	StepTypeMessage = "mensagem"
	StepTypeChoice  = "escolha"
	StepTypeAction  = "executar"
)

// Step is one node in the conversation graph.
// It is a closed set: MessageStep, ChoiceStep, ActionStep. The unexported
// method seals the interface so every step switch can be exhaustive.
type Step interface {
	// StepID returns the unique identifier of the step within its flow.
	StepID() string
	// StepType returns the wire tag of the variant.
	StepType() string

	sealed()
}

// MessageStep sends a message to the user. A nil Next ends the conversation.
type MessageStep struct {
	ID   string  `json:"id" mapstructure:"id"`
	Text string  `json:"mensagem" mapstructure:"mensagem"`
	Next *string `json:"proxima" mapstructure:"proxima"`
}

func (s *MessageStep) StepID() string   { return s.ID }
func (s *MessageStep) StepType() string { return StepTypeMessage }
func (s *MessageStep) sealed()          {}

// ChoiceOption is one selectable answer of a ChoiceStep. An empty Next ends
// the conversation when the option is picked.
type ChoiceOption struct {
	Label string `json:"texto" mapstructure:"texto"`
	Value string `json:"valor" mapstructure:"valor"`
	Next  string `json:"proxima" mapstructure:"proxima"`
}

// ChoiceStep asks the user a question and branches on the selected option.
type ChoiceStep struct {
	ID       string         `json:"id" mapstructure:"id"`
	Question string         `json:"pergunta" mapstructure:"pergunta"`
	Options  []ChoiceOption `json:"opcoes" mapstructure:"opcoes"`
}

func (s *ChoiceStep) StepID() string   { return s.ID }
func (s *ChoiceStep) StepType() string { return StepTypeChoice }
func (s *ChoiceStep) sealed()          {}

// ActionStep triggers a named side effect (AI reply, lead update, scoring).
// A nil Next ends the conversation after the action completes.
type ActionStep struct {
	ID     string         `json:"id" mapstructure:"id"`
	Action string         `json:"acao" mapstructure:"acao"`
	Params map[string]any `json:"parametros,omitempty" mapstructure:"parametros"`
	Next   *string        `json:"proxima" mapstructure:"proxima"`
}

func (s *ActionStep) StepID() string   { return s.ID }
func (s *ActionStep) StepType() string { return StepTypeAction }
func (s *ActionStep) sealed()          {}

// OutgoingIDs returns every step id the given step can transition to.
// Terminal steps return an empty slice.
func OutgoingIDs(s Step) []string {
	switch step := s.(type) {
	case *MessageStep:
		if step.Next != nil {
			return []string{*step.Next}
		}
	case *ChoiceStep:
		ids := make([]string, 0, len(step.Options))
		for _, opt := range step.Options {
			if opt.Next != "" {
				ids = append(ids, opt.Next)
			}
		}
		return ids
	case *ActionStep:
		if step.Next != nil {
			return []string{*step.Next}
		}
	}
	return nil
}

// MarshalJSON emits the step with its "tipo" discriminator so serialized
// flows round-trip through the parser.

func (s *MessageStep) MarshalJSON() ([]byte, error) {
	type alias MessageStep
	return json.Marshal(struct {
		Type string `json:"tipo"`
		*alias
	}{Type: StepTypeMessage, alias: (*alias)(s)})
}

func (s *ChoiceStep) MarshalJSON() ([]byte, error) {
	type alias ChoiceStep
	return json.Marshal(struct {
		Type string `json:"tipo"`
		*alias
	}{Type: StepTypeChoice, alias: (*alias)(s)})
}

func (s *ActionStep) MarshalJSON() ([]byte, error) {
	type alias ActionStep
	return json.Marshal(struct {
		Type string `json:"tipo"`
		*alias
	}{Type: StepTypeAction, alias: (*alias)(s)})
}
