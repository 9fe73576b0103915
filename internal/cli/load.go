package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zapcampo/convoflow/internal/compiler"
	"github.com/zapcampo/convoflow/pkg/domain"
)

// LoadFlow reads and parses a flow definition file. YAML is selected by
// extension; everything else is treated as JSON.
func LoadFlow(path string) (*domain.FlowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return compiler.ParseFlowDefinitionYAML(data)
	default:
		return compiler.ParseFlowDefinition(data)
	}
}

// ReadFlowDocument reads a flow file and decodes it into a raw document
// for validation reporting, without enforcing validity.
func ReadFlowDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return compiler.DecodeYAMLDocument(data)
	default:
		return compiler.DecodeJSONDocument(data)
	}
}
