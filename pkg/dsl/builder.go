package dsl

import (
	"fmt"
	"strings"

	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/validator"
)

// Builder accumulates steps in declaration order.
type Builder struct {
	version string
	start   string
	steps   []domain.Step
}

// New creates a flow builder for the given version and start step.
func New(version, startStepID string) *Builder {
	return &Builder{
		version: version,
		start:   startStepID,
	}
}

// Message starts a message step.
func (b *Builder) Message(id string) *MessageBuilder {
	return &MessageBuilder{b: b, step: domain.MessageStep{ID: id}}
}

// Choice starts a choice step.
func (b *Builder) Choice(id string) *ChoiceBuilder {
	return &ChoiceBuilder{b: b, step: domain.ChoiceStep{ID: id}}
}

// Action starts an action step.
func (b *Builder) Action(id string) *ActionBuilder {
	return &ActionBuilder{b: b, step: domain.ActionStep{ID: id}}
}

// Build compiles the flow and runs the same structural checks the parser
// applies to files.
func (b *Builder) Build() (*domain.FlowDefinition, error) {
	flow := &domain.FlowDefinition{
		Version:     b.version,
		StartStepID: b.start,
		Steps:       b.steps,
	}

	var msgs []string
	for _, issue := range validator.CheckStructure(flow) {
		msgs = append(msgs, issue.Message)
	}
	for _, issue := range validator.CheckReferences(flow) {
		msgs = append(msgs, issue.Message)
	}
	if cycle := validator.DetectCycle(flow); cycle != nil {
		msgs = append(msgs, fmt.Sprintf("Infinite loop detected: %s", strings.Join(cycle, " -> ")))
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("invalid flow: %s", strings.Join(msgs, "; "))
	}

	return flow, nil
}

// MessageBuilder provides a fluent API for configuring a message step.
type MessageBuilder struct {
	b    *Builder
	step domain.MessageStep
}

// Text sets the message content. Variable tokens like {{lead.nome}} are
// substituted at runtime.
func (m *MessageBuilder) Text(text string) *MessageBuilder {
	m.step.Text = text
	return m
}

// To finishes the step, branching to next.
func (m *MessageBuilder) To(next string) *Builder {
	m.step.Next = &next
	return m.done()
}

// End finishes the step as a terminal message.
func (m *MessageBuilder) End() *Builder {
	m.step.Next = nil
	return m.done()
}

func (m *MessageBuilder) done() *Builder {
	m.b.steps = append(m.b.steps, &m.step)
	return m.b
}

// ChoiceBuilder provides a fluent API for configuring a choice step.
type ChoiceBuilder struct {
	b    *Builder
	step domain.ChoiceStep
}

// Question sets the prompt shown before the options.
func (c *ChoiceBuilder) Question(q string) *ChoiceBuilder {
	c.step.Question = q
	return c
}

// Option adds an option branching to next when picked.
func (c *ChoiceBuilder) Option(label, value, next string) *ChoiceBuilder {
	c.step.Options = append(c.step.Options, domain.ChoiceOption{
		Label: label,
		Value: value,
		Next:  next,
	})
	return c
}

// OptionEnd adds an option that ends the conversation when picked.
func (c *ChoiceBuilder) OptionEnd(label, value string) *ChoiceBuilder {
	c.step.Options = append(c.step.Options, domain.ChoiceOption{
		Label: label,
		Value: value,
	})
	return c
}

func (c *ChoiceBuilder) done() *Builder {
	c.b.steps = append(c.b.steps, &c.step)
	return c.b
}

// Message flushes the choice step and starts a message step.
func (c *ChoiceBuilder) Message(id string) *MessageBuilder { return c.done().Message(id) }

// Choice flushes the choice step and starts another choice step.
func (c *ChoiceBuilder) Choice(id string) *ChoiceBuilder { return c.done().Choice(id) }

// Action flushes the choice step and starts an action step.
func (c *ChoiceBuilder) Action(id string) *ActionBuilder { return c.done().Action(id) }

// Build flushes the choice step and compiles the flow.
func (c *ChoiceBuilder) Build() (*domain.FlowDefinition, error) { return c.done().Build() }

// ActionBuilder provides a fluent API for configuring an action step.
type ActionBuilder struct {
	b    *Builder
	step domain.ActionStep
}

// Call sets the action name and its parameters.
func (a *ActionBuilder) Call(name string, params map[string]any) *ActionBuilder {
	a.step.Action = name
	a.step.Params = params
	return a
}

// To finishes the step, branching to next after the action runs.
func (a *ActionBuilder) To(next string) *Builder {
	a.step.Next = &next
	return a.done()
}

// End finishes the step as a terminal action.
func (a *ActionBuilder) End() *Builder {
	a.step.Next = nil
	return a.done()
}

func (a *ActionBuilder) done() *Builder {
	a.b.steps = append(a.b.steps, &a.step)
	return a.b
}
