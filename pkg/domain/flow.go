package domain

import "fmt"

// FlowDefinition is the immutable, author-owned conversation script.
// It is created once by the parser, validated once, and read concurrently
// thereafter. Step ids are pairwise unique and StartStepID names one of them;
// both invariants are enforced at parse/validation time, never at runtime.
type FlowDefinition struct {
	Version     string `json:"versao"`
	StartStepID string `json:"inicio"`
	Steps       []Step `json:"passos"`
}

// StepByID looks up a step by id. It fails with ErrStepNotFound when the id
// does not name a step of this flow.
func (f *FlowDefinition) StepByID(id string) (Step, error) {
	for _, s := range f.Steps {
		if s.StepID() == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("step %q not found in flow: %w", id, ErrStepNotFound)
}

// StepIDs returns the ids of all steps in definition order.
func (f *FlowDefinition) StepIDs() []string {
	ids := make([]string, 0, len(f.Steps))
	for _, s := range f.Steps {
		ids = append(ids, s.StepID())
	}
	return ids
}
