package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/core/apperr"
)

// ValidatePayload checks payload against schema. An empty schema accepts
// anything. Failures are VALIDATION_ERROR values listing every violation.
func ValidatePayload(schema *agent.Schema, payload map[string]any) error {
	if schema.Empty() {
		return nil
	}

	compiled, err := toOpenAPI(schema)
	if err != nil {
		return apperr.Validation("schema", err.Error())
	}

	// VisitJSON expects the generic shapes produced by encoding/json.
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperr.Validation("payload", err.Error())
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return apperr.Validation("payload", err.Error())
	}

	err = compiled.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	violations := flatten(err)
	return apperr.Validation("payload", strings.Join(violations, "; "),
		apperr.WithUserMessage("Os dados de entrada não correspondem ao schema do agente."),
		apperr.WithField("violations", violations),
	)
}

func toOpenAPI(schema *agent.Schema) (*openapi3.Schema, error) {
	root := *schema
	if root.Type == "" {
		root.Type = "object"
	}

	raw, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	var out openapi3.Schema
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &out, nil
}

func flatten(err error) []string {
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		return []string{describe(err)}
	}

	out := make([]string, 0, len(multi))
	for _, item := range multi {
		out = append(out, flatten(item)...)
	}
	return out
}

func describe(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			return fmt.Sprintf("%s: %s", strings.Join(path, "."), schemaErr.Reason)
		}
		return schemaErr.Reason
	}
	return err.Error()
}
