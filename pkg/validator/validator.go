// Package validator runs the full battery of authoring checks over a flow
// definition: schema, structure, references, cycles, reachability and
// content quality. Errors block the flow from being used; warnings flag
// suspicious but functional content.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/schema"
)

// Issue codes. Errors make a flow unusable; warning codes never do.
const (
	CodeSchemaError          = "SCHEMA_ERROR"
	CodeDuplicateID          = "DUPLICATE_ID"
	CodeInvalidStart         = "INVALID_START"
	CodeEmptyChoices         = "EMPTY_CHOICES"
	CodeDuplicateOptionValue = "DUPLICATE_OPTION_VALUE"
	CodeInvalidReference     = "INVALID_REFERENCE"
	CodeCycleDetected        = "CYCLE_DETECTED"

	CodeUnreachableStep = "UNREACHABLE_STEP"
	CodeDeadEnd         = "DEAD_END"
	CodeTerminalAction  = "TERMINAL_ACTION"
	CodeLongMessage     = "LONG_MESSAGE"
	CodeHasVariables    = "HAS_VARIABLES"
	CodeTooManyOptions  = "TOO_MANY_OPTIONS"
	CodeShortOption     = "SHORT_OPTION"
)

// Issue is a single validation finding.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	StepID  string `json:"stepId,omitempty"`
}

// Result aggregates every finding of one validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Summary renders a one-line human summary of the result.
func (r Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "Flow is valid with no warnings."
	}
	var parts []string
	if !r.Valid {
		parts = append(parts, fmt.Sprintf("%d error(s)", len(r.Errors)))
	}
	if len(r.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", len(r.Warnings)))
	}
	return strings.Join(parts, ", ")
}

// Validator holds the tunable content-quality thresholds.
type Validator struct {
	maxMessageLen  int
	maxOptions     int
	minOptionLabel int
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxMessageLength overrides the long-message threshold (default 1000).
func WithMaxMessageLength(n int) Option {
	return func(v *Validator) { v.maxMessageLen = n }
}

// WithMaxOptions overrides the too-many-options threshold (default 10).
func WithMaxOptions(n int) Option {
	return func(v *Validator) { v.maxOptions = n }
}

// New creates a Validator with default thresholds.
func New(opts ...Option) *Validator {
	v := &Validator{
		maxMessageLen:  1000,
		maxOptions:     10,
		minOptionLabel: 2,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every check over raw untrusted input (a decoded JSON/YAML
// document). Schema failures short-circuit the graph checks, which assume a
// well-typed flow; all other errors accumulate.
func (v *Validator) Validate(raw any) Result {
	var errors, warnings []Issue

	flow, err := schema.Decode(raw)
	if err != nil {
		for _, fe := range schema.FieldErrors(err) {
			errors = append(errors, Issue{Code: CodeSchemaError, Message: fe.Reason, Path: fe.Path})
		}
		return Result{Valid: false, Errors: errors, Warnings: warnings}
	}

	errors = append(errors, CheckStructure(flow)...)
	errors = append(errors, CheckReferences(flow)...)

	if cycle := DetectCycle(flow); cycle != nil {
		errors = append(errors, Issue{
			Code:    CodeCycleDetected,
			Message: fmt.Sprintf("Infinite loop detected: %s", strings.Join(cycle, " -> ")),
		})
	}

	warnings = append(warnings, checkReachability(flow)...)
	warnings = append(warnings, checkDeadEnds(flow)...)
	warnings = append(warnings, v.checkContent(flow)...)

	return Result{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}

// Validate runs a Validator with default thresholds over raw input.
func Validate(raw any) Result {
	return New().Validate(raw)
}

// IsValid reports only the error-emptiness of Validate.
func IsValid(raw any) bool {
	return Validate(raw).Valid
}

// CheckStructure verifies duplicate ids, start-step existence, empty choice
// steps and duplicate option values. It assumes a schema-valid flow.
func CheckStructure(flow *domain.FlowDefinition) []Issue {
	var errors []Issue

	seen := make(map[string]bool, len(flow.Steps))
	for _, step := range flow.Steps {
		if seen[step.StepID()] {
			errors = append(errors, Issue{
				Code:    CodeDuplicateID,
				Message: fmt.Sprintf("Duplicate step ID: %s", step.StepID()),
				StepID:  step.StepID(),
			})
		}
		seen[step.StepID()] = true
	}

	if !seen[flow.StartStepID] {
		errors = append(errors, Issue{
			Code:    CodeInvalidStart,
			Message: fmt.Sprintf("Start step '%s' does not exist", flow.StartStepID),
		})
	}

	for _, step := range flow.Steps {
		choice, ok := step.(*domain.ChoiceStep)
		if !ok {
			continue
		}
		if len(choice.Options) == 0 {
			errors = append(errors, Issue{
				Code:    CodeEmptyChoices,
				Message: fmt.Sprintf("Choice step '%s' has no options", choice.ID),
				StepID:  choice.ID,
			})
		}
		values := make(map[string]bool, len(choice.Options))
		for _, opt := range choice.Options {
			if values[opt.Value] {
				errors = append(errors, Issue{
					Code:    CodeDuplicateOptionValue,
					Message: fmt.Sprintf("Duplicate option value '%s' in step '%s'", opt.Value, choice.ID),
					StepID:  choice.ID,
				})
			}
			values[opt.Value] = true
		}
	}

	return errors
}

// CheckReferences verifies that every non-null next id (including choice
// option targets) resolves to an existing step.
func CheckReferences(flow *domain.FlowDefinition) []Issue {
	ids := make(map[string]bool, len(flow.Steps))
	for _, step := range flow.Steps {
		ids[step.StepID()] = true
	}

	var errors []Issue
	for _, step := range flow.Steps {
		switch s := step.(type) {
		case *domain.MessageStep:
			if s.Next != nil && !ids[*s.Next] {
				errors = append(errors, danglingRef(s.ID, *s.Next))
			}
		case *domain.ChoiceStep:
			for _, opt := range s.Options {
				if opt.Next != "" && !ids[opt.Next] {
					errors = append(errors, Issue{
						Code:    CodeInvalidReference,
						Message: fmt.Sprintf("Step '%s' option '%s' references non-existent step '%s'", s.ID, opt.Label, opt.Next),
						StepID:  s.ID,
					})
				}
			}
		case *domain.ActionStep:
			if s.Next != nil && !ids[*s.Next] {
				errors = append(errors, danglingRef(s.ID, *s.Next))
			}
		}
	}
	return errors
}

func danglingRef(stepID, target string) Issue {
	return Issue{
		Code:    CodeInvalidReference,
		Message: fmt.Sprintf("Step '%s' references non-existent step '%s'", stepID, target),
		StepID:  stepID,
	}
}

// DetectCycle runs a depth-first search from the start step following every
// outgoing edge and maintaining a recursion stack. It returns the first
// cycle found along DFS order as the stack slice from the repeated step's
// first occurrence through the repetition, inclusive, or nil when the flow
// is acyclic. Only one cycle is ever reported; a scripted conversation must
// terminate, so any cycle is fatal and the author fixes them one at a time.
func DetectCycle(flow *domain.FlowDefinition) []string {
	steps := make(map[string]domain.Step, len(flow.Steps))
	for _, step := range flow.Steps {
		steps[step.StepID()] = step
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if onStack[id] {
			for i, p := range path {
				if p == id {
					cycle := make([]string, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					return append(cycle, id)
				}
			}
			return []string{id, id}
		}
		if visited[id] {
			return nil
		}
		step, ok := steps[id]
		if !ok {
			return nil
		}

		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, next := range domain.OutgoingIDs(step) {
			if cycle := dfs(next); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
		return nil
	}

	return dfs(flow.StartStepID)
}

// Reachable returns the set of step ids reachable from the start step.
func Reachable(flow *domain.FlowDefinition) map[string]bool {
	steps := make(map[string]domain.Step, len(flow.Steps))
	for _, step := range flow.Steps {
		steps[step.StepID()] = step
	}

	reached := make(map[string]bool)
	var traverse func(id string)
	traverse = func(id string) {
		if reached[id] {
			return
		}
		step, ok := steps[id]
		if !ok {
			return
		}
		reached[id] = true
		for _, next := range domain.OutgoingIDs(step) {
			traverse(next)
		}
	}
	traverse(flow.StartStepID)
	return reached
}

func checkReachability(flow *domain.FlowDefinition) []Issue {
	reached := Reachable(flow)

	var warnings []Issue
	for _, step := range flow.Steps {
		if !reached[step.StepID()] {
			warnings = append(warnings, Issue{
				Code:    CodeUnreachableStep,
				Message: fmt.Sprintf("Step '%s' is not reachable from the start", step.StepID()),
				StepID:  step.StepID(),
			})
		}
	}
	return warnings
}

func checkDeadEnds(flow *domain.FlowDefinition) []Issue {
	var warnings []Issue
	for _, step := range flow.Steps {
		switch s := step.(type) {
		case *domain.MessageStep:
			if s.Next == nil {
				warnings = append(warnings, Issue{
					Code:    CodeDeadEnd,
					Message: fmt.Sprintf("Step '%s' is a dead end (conversation will end here)", s.ID),
					StepID:  s.ID,
				})
			}
		case *domain.ActionStep:
			if s.Next == nil {
				warnings = append(warnings, Issue{
					Code:    CodeTerminalAction,
					Message: fmt.Sprintf("Action step '%s' has no continuation (may be intentional)", s.ID),
					StepID:  s.ID,
				})
			}
		}
	}
	return warnings
}

var variableToken = regexp.MustCompile(`\{\{([^}]+)\}\}`)

func (v *Validator) checkContent(flow *domain.FlowDefinition) []Issue {
	var warnings []Issue

	for _, step := range flow.Steps {
		switch s := step.(type) {
		case *domain.MessageStep:
			if len(s.Text) > v.maxMessageLen {
				warnings = append(warnings, Issue{
					Code:    CodeLongMessage,
					Message: fmt.Sprintf("Step '%s' has a very long message (%d chars)", s.ID, len(s.Text)),
					StepID:  s.ID,
				})
			}
			if tokens := variableToken.FindAllString(s.Text, -1); len(tokens) > 0 {
				warnings = append(warnings, Issue{
					Code:    CodeHasVariables,
					Message: fmt.Sprintf("Step '%s' uses variables: %s. Ensure they are defined.", s.ID, strings.Join(tokens, ", ")),
					StepID:  s.ID,
				})
			}
		case *domain.ChoiceStep:
			if len(s.Options) > v.maxOptions {
				warnings = append(warnings, Issue{
					Code:    CodeTooManyOptions,
					Message: fmt.Sprintf("Step '%s' has %d options (consider simplifying)", s.ID, len(s.Options)),
					StepID:  s.ID,
				})
			}
			for _, opt := range s.Options {
				if len(opt.Label) < v.minOptionLabel {
					warnings = append(warnings, Issue{
						Code:    CodeShortOption,
						Message: fmt.Sprintf("Step '%s' has a very short option: '%s'", s.ID, opt.Label),
						StepID:  s.ID,
					})
				}
			}
		}
	}

	return warnings
}
