// Package compiler turns raw flow documents into trusted FlowDefinition
// values. It shares the schema and graph checks with the validator package
// so both enforce identical invariants; the difference is the return shape:
// the parser folds every finding into a single joined error, the validator
// reports them individually.
package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/schema"
	"github.com/zapcampo/convoflow/pkg/validator"
)

// ParseFlowDefinition parses a JSON flow document into a trusted
// FlowDefinition. On any failure it returns a single "; "-joined error
// naming every violation found.
func ParseFlowDefinition(data []byte) (*domain.FlowDefinition, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return ParseRaw(raw)
}

// ParseFlowDefinitionYAML parses a YAML flow document. Flows are stored as
// JSON but authored by hand in YAML often enough that the CLI accepts both.
func ParseFlowDefinitionYAML(data []byte) (*domain.FlowDefinition, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return ParseRaw(raw)
}

// DecodeJSONDocument decodes a JSON flow file into a raw document without
// enforcing validity, for validation reporting.
func DecodeJSONDocument(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return raw, nil
}

// DecodeYAMLDocument decodes a YAML flow file into a raw document without
// enforcing validity.
func DecodeYAMLDocument(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return raw, nil
}

// ParseRaw parses an already-decoded document.
func ParseRaw(raw any) (*domain.FlowDefinition, error) {
	flow, err := schema.Decode(raw)
	if err != nil {
		msgs := make([]string, 0)
		for _, fe := range schema.FieldErrors(err) {
			msgs = append(msgs, fe.Error())
		}
		return nil, fmt.Errorf("flow validation failed: %s", strings.Join(msgs, "; "))
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
