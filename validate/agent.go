package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/strategy"
)

// Check names used as Issue.Type.
const (
	CheckStructure   = "structure"
	CheckConnections = "connections"
	CheckDataFlow    = "dataFlow"
	CheckSchemas     = "schemas"
	CheckProviders   = "providers"
	CheckTopology    = "topology"
)

// Issue is a blocking validation error.
type Issue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AgentValidation is the outcome of ValidateAgent.
type AgentValidation struct {
	IsValid  bool              `json:"isValid"`
	Errors   []Issue           `json:"errors"`
	Warnings []string          `json:"warnings"`
	Strategy strategy.Strategy `json:"strategy"`
}

// Option tunes ValidateAgent.
type Option func(*options)

type options struct {
	configured map[ai.ProviderID]bool
}

// WithConfiguredProviders enables the credential-presence warning for ai
// nodes whose provider has no credential.
func WithConfiguredProviders(ids ...ai.ProviderID) Option {
	return func(o *options) {
		o.configured = make(map[ai.ProviderID]bool, len(ids))
		for _, id := range ids {
			o.configured[id] = true
		}
	}
}

type check func(a *agent.Agent, o *options) agent.ValidationResult

// ValidateAgent runs every sub-check against a. Only the first blocking
// failure becomes an error; warnings accumulate from all checks.
func ValidateAgent(a *agent.Agent, opts ...Option) AgentValidation {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	checks := []struct {
		name string
		run  check
	}{
		{CheckStructure, checkStructure},
		{CheckConnections, checkConnections},
		{CheckDataFlow, checkDataFlow},
		{CheckSchemas, checkSchemas},
		{CheckProviders, checkProviders},
		{CheckTopology, checkTopology},
	}

	result := AgentValidation{
		Errors:   []Issue{},
		Warnings: []string{},
		Strategy: strategy.DetectAgentType(a),
	}

	for _, c := range checks {
		outcome := c.run(a, o)
		result.Warnings = append(result.Warnings, outcome.Warnings...)
		if !outcome.Valid && len(result.Errors) == 0 {
			result.Errors = append(result.Errors, Issue{Type: c.name, Message: outcome.Error})
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func checkStructure(a *agent.Agent, _ *options) agent.ValidationResult {
	if len(a.Nodes) == 0 {
		return agent.Fail("Agente deve ter pelo menos um nó")
	}

	seen := make(map[string]bool, len(a.Nodes))
	for _, node := range a.Nodes {
		if seen[node.ID] {
			return agent.Fail(fmt.Sprintf("ID de nó duplicado '%s'", node.ID))
		}
		seen[node.ID] = true
	}

	counts := a.CountByType()
	if counts[agent.NodeInput] == 0 {
		return agent.Fail("Agente deve ter pelo menos um nó de entrada (input)")
	}
	if counts[agent.NodeOutput] == 0 {
		return agent.Fail("Agente deve ter pelo menos um nó de saída (output)")
	}
	return agent.Pass()
}

func checkConnections(a *agent.Agent, _ *options) agent.ValidationResult {
	if len(a.Edges) == 0 {
		return agent.Fail("Agente deve ter pelo menos uma conexão (connection) entre nós")
	}

	known := make(map[string]bool, len(a.Nodes))
	for _, node := range a.Nodes {
		known[node.ID] = true
	}
	for _, edge := range a.Edges {
		if !known[edge.Source] {
			return agent.Fail(fmt.Sprintf("Nó fonte '%s' não encontrado", edge.Source))
		}
		if !known[edge.Target] {
			return agent.Fail(fmt.Sprintf("Nó destino '%s' não encontrado", edge.Target))
		}
	}

	if orphans := a.Orphans(); len(orphans) > 0 {
		return agent.Pass(fmt.Sprintf("%d nó(s) não conectado(s): %s", len(orphans), strings.Join(orphans, ", ")))
	}
	return agent.Pass()
}

// checkDataFlow requires both ends of the flow and warns when an output node
// cannot be reached from any input node.
func checkDataFlow(a *agent.Agent, _ *options) agent.ValidationResult {
	inputs := a.NodesOfType(agent.NodeInput)
	outputs := a.NodesOfType(agent.NodeOutput)
	if len(inputs) == 0 {
		return agent.Fail("Fluxo deve começar com nó de entrada (input)")
	}
	if len(outputs) == 0 {
		return agent.Fail("Fluxo deve terminar com nó de saída (output)")
	}

	reachable := make(map[string]bool)
	queue := make([]string, 0, len(inputs))
	for _, node := range inputs {
		reachable[node.ID] = true
		queue = append(queue, node.ID)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range a.Outgoing(current) {
			if !reachable[edge.Target] {
				reachable[edge.Target] = true
				queue = append(queue, edge.Target)
			}
		}
	}

	var warnings []string
	for _, node := range outputs {
		if !reachable[node.ID] {
			warnings = append(warnings, fmt.Sprintf("Nó de saída '%s' não é alcançável a partir de um nó de entrada", node.ID))
		}
	}
	return agent.Pass(warnings...)
}

// checkSchemas folds the per-node validators into the agent result. Node
// failures are advisory here except a missing API endpoint, which no runtime
// can execute.
func checkSchemas(a *agent.Agent, _ *options) agent.ValidationResult {
	var warnings []string
	blocking := ""

	for _, node := range a.Nodes {
		if node.Kind() == agent.NodeAI {
			data, _ := node.AI()
			if strings.TrimSpace(data.Prompt) == "" {
				warnings = append(warnings, fmt.Sprintf("Nó AI '%s' sem prompt definido", node.ID))
			}
			if strings.TrimSpace(data.Provider) == "" {
				warnings = append(warnings, fmt.Sprintf("Nó AI '%s' sem provedor definido", node.ID))
			}
		}

		result := ValidateNode(node, a)
		for _, warning := range result.Warnings {
			warnings = append(warnings, fmt.Sprintf("[%s] %s", node.ID, warning))
		}
		if result.Valid {
			continue
		}

		switch result.Error {
		case msgAIMissingPrompt, msgAIMissingProvider:
			// Already reported above.
		case msgAPIMissingEndpoint:
			if blocking == "" {
				blocking = fmt.Sprintf("Nó de API '%s' sem endpoint definido", node.ID)
			}
		default:
			warnings = append(warnings, fmt.Sprintf("[%s] %s", node.ID, result.Error))
		}
	}

	if blocking != "" {
		return agent.Fail(blocking, warnings...)
	}
	return agent.Pass(warnings...)
}

func checkProviders(a *agent.Agent, o *options) agent.ValidationResult {
	var warnings []string
	for _, node := range a.NodesOfType(agent.NodeAI) {
		data, _ := node.AI()
		if strings.TrimSpace(data.Provider) == "" {
			warnings = append(warnings, "Provedor de IA não especificado")
			continue
		}
		if o.configured == nil {
			continue
		}
		id, known := ai.ParseProviderID(data.Provider)
		if known && !o.configured[id] {
			warnings = append(warnings, fmt.Sprintf("Provedor '%s' sem credencial configurada; outro provedor será usado", id))
		}
	}
	return agent.Pass(warnings...)
}

func checkTopology(a *agent.Agent, _ *options) agent.ValidationResult {
	if _, err := a.TopologicalOrder(); err != nil {
		if errors.Is(err, agent.ErrCycle) {
			return agent.Fail(fmt.Sprintf("Ciclo detectado no fluxo (%v)", err))
		}
		return agent.Fail(err.Error())
	}
	return agent.Pass()
}
