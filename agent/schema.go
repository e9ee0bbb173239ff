package agent

import "sort"

// Schema is the JSON-Schema-like description of an input or output shape.
// Only the subset the builder emits is modeled.
type Schema struct {
	Type        string             `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Title       string             `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Format      string             `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`
	Enum        []any              `json:"enum,omitempty" yaml:"enum,omitempty" mapstructure:"enum"`
	Items       *Schema            `json:"items,omitempty" yaml:"items,omitempty" mapstructure:"items"`
	Properties  map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty" mapstructure:"properties"`
	Required    []string           `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
}

// Empty reports whether the schema declares no properties.
func (s *Schema) Empty() bool {
	return s == nil || len(s.Properties) == 0
}

// PropertyNames returns the declared property names sorted for stable output.
func (s *Schema) PropertyNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRequired reports whether name appears in the required list.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, required := range s.Required {
		if required == name {
			return true
		}
	}
	return false
}
