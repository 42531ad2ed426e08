package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseProblemYAML parses a Problem from YAML bytes, applies defaults and validates it.
// This is used for APIs where the problem is provided as payload (not via filesystem).
func ParseProblemYAML(data []byte) (*Problem, error) {
	var p Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse problem yaml: %w", err)
	}

	ApplyDefaults(&p)
	if err := Validate(&p); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}

	return &p, nil
}

// ParseProblemYAMLString parses a Problem from a YAML string.
func ParseProblemYAMLString(yamlText string) (*Problem, error) {
	return ParseProblemYAML([]byte(yamlText))
}

// ParseMaterialsYAML parses a standalone material table.
func ParseMaterialsYAML(data []byte) (*MaterialFile, error) {
	var mf MaterialFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse materials yaml: %w", err)
	}
	if len(mf.Materials) == 0 {
		return nil, fmt.Errorf("invalid materials: at least one material must be defined")
	}
	if err := validateMaterials(mf.Materials); err != nil {
		return nil, fmt.Errorf("invalid materials: %w", err)
	}
	return &mf, nil
}

// MarshalProblemYAML renders a problem (normally after defaults) back to YAML.
func MarshalProblemYAML(p *Problem) ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode problem yaml: %w", err)
	}
	return out, nil
}
