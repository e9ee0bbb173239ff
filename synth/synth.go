// Package synth fabricates representative test data from node schemas.
//
// Every declared property yields exactly one value chosen by its type, format
// and enum. Input values and expected output values use different sentinels so
// a dry-run trace shows which side of the graph a value came from.
package synth

import (
	"time"

	"github.com/leofalp/agentgraph/agent"
)

// Sentinel values for synthesized inputs.
const (
	Email    = "teste@exemplo.com"
	Date     = "2024-01-15"
	DateTime = "2024-01-15T10:00:00Z"
	FileName = "arquivo-teste.pdf"
	Number   = 100
)

// Sentinel values for synthesized outputs.
const (
	OutputFileName = "arquivo-resultado.pdf"
	OutputNumber   = 95.5
)

// now is replaced in tests.
var now = time.Now

// ForSchema returns one input value per declared property. An empty schema
// yields a generic payload so simulation never blocks on missing metadata.
func ForSchema(schema *agent.Schema) map[string]any {
	if schema.Empty() {
		return map[string]any{
			"input":     "Dados de teste para o agente",
			"timestamp": now().UTC().Format(time.RFC3339),
		}
	}

	out := make(map[string]any, len(schema.Properties))
	for _, name := range schema.PropertyNames() {
		out[name] = inputValue(name, schema.Properties[name])
	}
	return out
}

// OutputFor returns one expected-output value per declared property.
func OutputFor(schema *agent.Schema) map[string]any {
	out := make(map[string]any)
	if schema == nil {
		return out
	}

	for _, name := range schema.PropertyNames() {
		out[name] = outputValue(name, schema.Properties[name])
	}
	return out
}

// ForAgent synthesizes data for the agent's first input node, falling back to
// the agent-level input schema.
func ForAgent(a *agent.Agent) map[string]any {
	return ForSchema(InputSchema(a))
}

// InputSchema returns the schema of the first input node that declares one,
// or the agent-level schema.
func InputSchema(a *agent.Agent) *agent.Schema {
	for _, node := range a.NodesOfType(agent.NodeInput) {
		data, err := node.Input()
		if err == nil && data.InputSchema != nil {
			return data.InputSchema
		}
	}
	return a.InputSchema
}

// OutputSchema mirrors InputSchema for output nodes.
func OutputSchema(a *agent.Agent) *agent.Schema {
	for _, node := range a.NodesOfType(agent.NodeOutput) {
		data, err := node.Output()
		if err == nil && data.OutputSchema != nil {
			return data.OutputSchema
		}
	}
	return a.OutputSchema
}

// ForNode returns sample data shaped for a single node.
func ForNode(node agent.Node) map[string]any {
	switch node.Kind() {
	case agent.NodeInput:
		data, _ := node.Input()
		return ForSchema(data.InputSchema)
	case agent.NodeOutput:
		data, _ := node.Output()
		return OutputFor(data.OutputSchema)
	case agent.NodeAI:
		return map[string]any{
			"input_text": "Texto de exemplo para processamento pela IA",
			"context":    "Contexto adicional para análise",
			"timestamp":  now().UTC().Format(time.RFC3339),
		}
	case agent.NodeLogic:
		return map[string]any{
			"condition_value": true,
			"numeric_value":   50,
			"text_value":      "teste",
		}
	case agent.NodeAPI:
		return map[string]any{
			"api_input":  "Dados para envio à API",
			"parameters": map[string]any{"param1": "valor1"},
			"headers":    map[string]any{"Content-Type": "application/json"},
		}
	default:
		return map[string]any{}
	}
}

func inputValue(name string, property *agent.Schema) any {
	if property == nil {
		return "Valor padrão"
	}

	switch property.Type {
	case "string":
		switch {
		case property.Format == "email":
			return Email
		case property.Format == "date":
			return Date
		case property.Format == "date-time":
			return DateTime
		case property.Format == "binary":
			return FileName
		case len(property.Enum) > 0:
			return property.Enum[0]
		default:
			return "Teste " + name
		}
	case "number", "integer":
		return Number
	case "boolean":
		return true
	case "array":
		return arrayValue(property.Items)
	case "object":
		return map[string]any{"campo": "valor"}
	default:
		if len(property.Enum) > 0 {
			return property.Enum[0]
		}
		return "Valor padrão"
	}
}

func arrayValue(items *agent.Schema) []any {
	if items == nil {
		return []any{map[string]any{"teste": "valor"}, map[string]any{"teste": "valor"}}
	}

	switch items.Type {
	case "string":
		if items.Format == "binary" {
			return []any{"arquivo-teste-1.pdf", "arquivo-teste-2.pdf"}
		}
		return []any{"item1", "item2"}
	case "number", "integer":
		return []any{1, 2}
	case "boolean":
		return []any{true, false}
	default:
		return []any{map[string]any{"teste": "valor"}, map[string]any{"teste": "valor"}}
	}
}

func outputValue(name string, property *agent.Schema) any {
	if property == nil {
		return "Resultado padrão"
	}

	switch property.Type {
	case "string":
		if property.Format == "binary" {
			return OutputFileName
		}
		return "Resultado " + name
	case "number", "integer":
		return OutputNumber
	case "boolean":
		return true
	case "array":
		return []any{"resultado1", "resultado2"}
	case "object":
		return map[string]any{"status": "sucesso"}
	default:
		return "Resultado padrão"
	}
}
