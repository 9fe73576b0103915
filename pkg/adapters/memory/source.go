package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/zapcampo/convoflow/pkg/domain"
)

// FlowSource implements ports.FlowSource using an in-memory map.
type FlowSource struct {
	flows map[string][]byte
}

// NewFlowSource creates a FlowSource from raw JSON documents keyed by flow ID.
func NewFlowSource(data map[string]string) *FlowSource {
	flows := make(map[string][]byte, len(data))
	for k, v := range data {
		flows[k] = []byte(v)
	}
	return &FlowSource{flows: flows}
}

// NewFlowSourceFromDefinitions creates a FlowSource from domain objects.
// This handles serialization automatically, improving DX for tests.
func NewFlowSourceFromDefinitions(flows map[string]*domain.FlowDefinition) (*FlowSource, error) {
	data := make(map[string][]byte, len(flows))
	for id, flow := range flows {
		bytes, err := json.Marshal(flow)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flow %s: %w", id, err)
		}
		data[id] = bytes
	}
	return &FlowSource{flows: data}, nil
}

// GetFlow retrieves the raw definition of a flow by ID.
func (s *FlowSource) GetFlow(ctx context.Context, flowID string) ([]byte, error) {
	content, ok := s.flows[flowID]
	if !ok {
		return nil, fmt.Errorf("flow not found: %s", flowID)
	}
	return content, nil
}

// ListFlows returns all available flow IDs.
func (s *FlowSource) ListFlows() ([]string, error) {
	keys := make([]string, 0, len(s.flows))
	for k := range s.flows {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
