package strategy

import (
	"strings"
	"time"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/synth"
)

// Known categories. Anything else is handled by the generic validator.
const (
	CategoryHRLegal = "RH & Jurídico"
	CategoryCustom  = "custom"
)

// Strategy is the derived test plan for an agent.
type Strategy struct {
	Category        string                   `json:"category"`
	NodeTypes       []agent.NodeType         `json:"nodeTypes"`
	Providers       []string                 `json:"providers"`
	Complexity      agent.Complexity         `json:"complexity"`
	RequiredInputs  map[string]*agent.Schema `json:"requiredInputs"`
	ExpectedOutputs map[string]*agent.Schema `json:"expectedOutputs"`
	TestTimeout     time.Duration            `json:"testTimeout"`
	Retries         int                      `json:"retries"`
	Validations     []string                 `json:"validations"`
}

// DetectAgentType computes the strategy for a.
func DetectAgentType(a *agent.Agent) Strategy {
	complexity := ComplexityOf(a)

	category := strings.TrimSpace(a.Category)
	if category == "" {
		category = InferCategory(a)
	}

	return Strategy{
		Category:        category,
		NodeTypes:       nodeTypes(a),
		Providers:       Providers(a),
		Complexity:      complexity,
		RequiredInputs:  properties(synth.InputSchema(a)),
		ExpectedOutputs: properties(synth.OutputSchema(a)),
		TestTimeout:     TimeoutFor(complexity),
		Retries:         RetriesFor(complexity),
		Validations:     ValidationsFor(complexity),
	}
}

// ComplexityOf buckets the graph by node counts.
func ComplexityOf(a *agent.Agent) agent.Complexity {
	counts := a.CountByType()
	nodes, ais, apis := len(a.Nodes), counts[agent.NodeAI], counts[agent.NodeAPI]

	switch {
	case nodes <= 3 && ais <= 1 && apis == 0:
		return agent.Beginner
	case nodes <= 6 && ais <= 2 && apis <= 2:
		return agent.Intermediate
	default:
		return agent.Advanced
	}
}

// TimeoutFor gives larger graphs a longer overall test budget.
func TimeoutFor(c agent.Complexity) time.Duration {
	switch c {
	case agent.Beginner:
		return 30 * time.Second
	case agent.Advanced:
		return 120 * time.Second
	default:
		return 60 * time.Second
	}
}

// RetriesFor gives larger graphs fewer end-to-end retries.
func RetriesFor(c agent.Complexity) int {
	switch c {
	case agent.Beginner:
		return 3
	case agent.Advanced:
		return 1
	default:
		return 2
	}
}

// ValidationsFor lists the validation suites to run for c.
func ValidationsFor(c agent.Complexity) []string {
	switch c {
	case agent.Beginner:
		return []string{"basic_flow", "output_format"}
	case agent.Intermediate:
		return []string{"full_flow", "data_quality", "error_handling"}
	case agent.Advanced:
		return []string{"complete_validation", "performance", "security"}
	default:
		return []string{"basic_flow"}
	}
}

// InferCategory scans schemas, prompts and labels for domain vocabulary.
// The first matching domain wins; the default is CategoryCustom.
func InferCategory(a *agent.Agent) string {
	if looksLikeHRLegal(a) {
		return CategoryHRLegal
	}
	return CategoryCustom
}

func looksLikeHRLegal(a *agent.Agent) bool {
	if hasInputField(a, "file", "documentos", "curriculos", "email") {
		return true
	}

	for _, node := range a.Nodes {
		label := strings.ToLower(node.Label())
		prompt, _ := node.Data["prompt"].(string)
		prompt = strings.ToLower(prompt)

		if strings.Contains(label, "email") || strings.Contains(label, "contrato") || strings.Contains(prompt, "contrato") {
			return true
		}
	}
	return false
}

func hasInputField(a *agent.Agent, names ...string) bool {
	schemas := []*agent.Schema{a.InputSchema}
	for _, node := range a.NodesOfType(agent.NodeInput) {
		if data, err := node.Input(); err == nil {
			schemas = append(schemas, data.InputSchema)
		}
	}

	for _, schema := range schemas {
		if schema == nil {
			continue
		}
		for _, name := range names {
			if _, ok := schema.Properties[name]; ok {
				return true
			}
		}
	}
	return false
}

// Providers lists the distinct providers named by ai nodes, in node order.
func Providers(a *agent.Agent) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, node := range a.NodesOfType(agent.NodeAI) {
		provider, _ := node.Data["provider"].(string)
		if provider == "" || seen[provider] {
			continue
		}
		seen[provider] = true
		out = append(out, provider)
	}
	return out
}

func nodeTypes(a *agent.Agent) []agent.NodeType {
	seen := make(map[agent.NodeType]bool)
	out := make([]agent.NodeType, 0)
	for _, node := range a.Nodes {
		kind := node.Kind()
		if kind == "" {
			kind = "unknown"
		}
		if !seen[kind] {
			seen[kind] = true
			out = append(out, kind)
		}
	}
	return out
}

func properties(schema *agent.Schema) map[string]*agent.Schema {
	if schema == nil || schema.Properties == nil {
		return map[string]*agent.Schema{}
	}
	return schema.Properties
}

// Has reports whether t appears in the strategy's node types.
func (s Strategy) Has(t agent.NodeType) bool {
	for _, nodeType := range s.NodeTypes {
		if nodeType == t {
			return true
		}
	}
	return false
}
