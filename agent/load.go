package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of an agent document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by file extension; anything not YAML is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads an agent from a JSON or YAML file.
func Load(path string) (*Agent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent file: %w", err)
	}
	return Parse(raw, FormatFromPath(path))
}

// Parse decodes an agent document.
func Parse(raw []byte, format Format) (*Agent, error) {
	var out Agent

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parse agent yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parse agent json: %w", err)
		}
	}

	return &out, nil
}
