package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// flowEnvelope is the top-level wire shape before steps are discriminated.
type flowEnvelope struct {
	Version string           `mapstructure:"versao"`
	Start   string           `mapstructure:"inicio"`
	Steps   []map[string]any `mapstructure:"passos"`
}

// Decode converts raw, untrusted input (a decoded JSON/YAML document) into a
// typed FlowDefinition. It accumulates every field-level failure instead of
// stopping at the first one; on any failure it returns a nil flow and an
// *AggregateError.
func Decode(raw any) (*domain.FlowDefinition, error) {
	var errs []*FieldError

	var env flowEnvelope
	if err := decodeInto(raw, &env); err != nil {
		return nil, &AggregateError{Errors: []*FieldError{{Reason: err.Error()}}}
	}

	if env.Version == "" {
		errs = append(errs, &FieldError{Path: "versao", Reason: "Version is required"})
	}
	if env.Start == "" {
		errs = append(errs, &FieldError{Path: "inicio", Reason: "Start step ID is required"})
	}
	if len(env.Steps) == 0 {
		errs = append(errs, &FieldError{Path: "passos", Reason: "At least one step is required"})
	}

	steps := make([]domain.Step, 0, len(env.Steps))
	for i, rawStep := range env.Steps {
		path := fmt.Sprintf("passos.%d", i)
		step, stepErrs := decodeStep(path, rawStep)
		if len(stepErrs) > 0 {
			errs = append(errs, stepErrs...)
			continue
		}
		steps = append(steps, step)
	}

	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}

	return &domain.FlowDefinition{
		Version:     env.Version,
		StartStepID: env.Start,
		Steps:       steps,
	}, nil
}

func decodeStep(path string, raw map[string]any) (domain.Step, []*FieldError) {
	tipo, _ := raw["tipo"].(string)

	switch tipo {
	case domain.StepTypeMessage:
		var step domain.MessageStep
		if err := decodeInto(raw, &step); err != nil {
			return nil, []*FieldError{{Path: path, Reason: err.Error()}}
		}
		return &step, checkMessage(path, &step)

	case domain.StepTypeChoice:
		var step domain.ChoiceStep
		if err := decodeInto(raw, &step); err != nil {
			return nil, []*FieldError{{Path: path, Reason: err.Error()}}
		}
		return &step, checkChoice(path, &step)

	case domain.StepTypeAction:
		var step domain.ActionStep
		if err := decodeInto(raw, &step); err != nil {
			return nil, []*FieldError{{Path: path, Reason: err.Error()}}
		}
		return &step, checkAction(path, &step)

	default:
		return nil, []*FieldError{{
			Path:   path + ".tipo",
			Reason: fmt.Sprintf("invalid step type %q (want %q, %q or %q)", tipo, domain.StepTypeMessage, domain.StepTypeChoice, domain.StepTypeAction),
		}}
	}
}

func checkMessage(path string, step *domain.MessageStep) []*FieldError {
	var errs []*FieldError
	if step.ID == "" {
		errs = append(errs, &FieldError{Path: path + ".id", Reason: "Step ID is required"})
	}
	if step.Text == "" {
		errs = append(errs, &FieldError{Path: path + ".mensagem", Reason: "Message content is required"})
	}
	return errs
}

func checkChoice(path string, step *domain.ChoiceStep) []*FieldError {
	var errs []*FieldError
	if step.ID == "" {
		errs = append(errs, &FieldError{Path: path + ".id", Reason: "Step ID is required"})
	}
	if step.Question == "" {
		errs = append(errs, &FieldError{Path: path + ".pergunta", Reason: "Question is required"})
	}
	if len(step.Options) == 0 {
		errs = append(errs, &FieldError{Path: path + ".opcoes", Reason: "At least one option is required"})
	}
	for i, opt := range step.Options {
		optPath := fmt.Sprintf("%s.opcoes.%d", path, i)
		if opt.Label == "" {
			errs = append(errs, &FieldError{Path: optPath + ".texto", Reason: "Option text is required"})
		}
		if opt.Value == "" {
			errs = append(errs, &FieldError{Path: optPath + ".valor", Reason: "Option value is required"})
		}
	}
	return errs
}

func checkAction(path string, step *domain.ActionStep) []*FieldError {
	var errs []*FieldError
	if step.ID == "" {
		errs = append(errs, &FieldError{Path: path + ".id", Reason: "Step ID is required"})
	}
	if step.Action == "" {
		errs = append(errs, &FieldError{Path: path + ".acao", Reason: "Action is required"})
	}
	return errs
}

// decodeInto maps a raw document into target using mapstructure tags.
// Unknown keys are ignored, matching the tolerant behavior of the original
// authoring format.
func decodeInto(raw any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
