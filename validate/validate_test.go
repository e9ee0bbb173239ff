package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/providers/ai"
)

func linearAgent() *agent.Agent {
	return &agent.Agent{
		ID: "triagem",
		Nodes: []agent.Node{
			{ID: "in", Type: agent.NodeInput},
			{ID: "llm", Type: agent.NodeAI, Data: map[string]any{
				"provider": "openai",
				"model":    "gpt-4o-mini",
				"prompt":   "Analise o documento e gere um resumo executivo",
			}},
			{ID: "out", Type: agent.NodeOutput},
		},
		Edges: []agent.Edge{
			{ID: "e1", Source: "in", Target: "llm"},
			{ID: "e2", Source: "llm", Target: "out"},
		},
	}
}

func containsWarning(warnings []string, fragments ...string) bool {
	for _, warning := range warnings {
		matched := true
		for _, fragment := range fragments {
			if !strings.Contains(warning, fragment) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func TestValidateAgent_Valid(t *testing.T) {
	result := ValidateAgent(linearAgent())
	if !result.IsValid || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if result.Strategy.Complexity != agent.Beginner {
		t.Errorf("strategy = %+v", result.Strategy)
	}
}

func TestValidateAgent_MissingEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(a *agent.Agent)
		fragment string
	}{
		{"no input", func(a *agent.Agent) { a.Nodes[0].Type = agent.NodeLogic }, "input"},
		{"no output", func(a *agent.Agent) { a.Nodes[2].Type = agent.NodeLogic }, "output"},
		{"no nodes", func(a *agent.Agent) { a.Nodes = nil }, "nó"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := linearAgent()
			tt.mutate(a)

			result := ValidateAgent(a)
			if result.IsValid {
				t.Fatal("expected invalid agent")
			}
			if !strings.Contains(result.Errors[0].Message, tt.fragment) {
				t.Errorf("error %q does not mention %q", result.Errors[0].Message, tt.fragment)
			}
		})
	}
}

func TestValidateAgent_NoEdges(t *testing.T) {
	a := linearAgent()
	a.Edges = nil

	result := ValidateAgent(a)
	if result.IsValid {
		t.Fatal("expected invalid agent")
	}
	if issue := result.Errors[0]; issue.Type != CheckConnections || !strings.Contains(issue.Message, "connection") {
		t.Errorf("issue = %+v", issue)
	}
}

func TestValidateAgent_DanglingEdgeIsBlocking(t *testing.T) {
	a := linearAgent()
	a.Edges = append(a.Edges, agent.Edge{Source: "llm", Target: "ghost"})

	result := ValidateAgent(a)
	if result.IsValid || !strings.Contains(result.Errors[0].Message, "ghost") {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected fail-fast single error, got %d", len(result.Errors))
	}
}

func TestValidateAgent_AINodeWithoutPromptIsWarning(t *testing.T) {
	a := linearAgent()
	delete(a.Nodes[1].Data, "prompt")

	result := ValidateAgent(a)
	if !result.IsValid {
		t.Fatalf("missing prompt must not block: %+v", result.Errors)
	}
	if !containsWarning(result.Warnings, "llm", "prompt") {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestValidateAgent_OrphanWarning(t *testing.T) {
	a := linearAgent()
	a.Nodes = append(a.Nodes, agent.Node{ID: "scratch", Type: agent.NodeLogic})

	result := ValidateAgent(a)
	if !result.IsValid || !containsWarning(result.Warnings, "scratch") {
		t.Errorf("result = %+v", result)
	}
}

func TestValidateAgent_WarningsSurviveBlockingError(t *testing.T) {
	a := linearAgent()
	a.Nodes = append(a.Nodes, agent.Node{ID: "scratch", Type: agent.NodeLogic})
	a.Edges = append(a.Edges, agent.Edge{Source: "out", Target: "llm"})

	result := ValidateAgent(a)
	if result.IsValid || result.Errors[0].Type != CheckTopology {
		t.Fatalf("cycle must be blocking, got %+v", result.Errors)
	}
	if !containsWarning(result.Warnings, "scratch") {
		t.Errorf("warnings lost: %v", result.Warnings)
	}
}

func TestValidateAgent_APIWithoutEndpointBlocks(t *testing.T) {
	a := linearAgent()
	a.Nodes = append(a.Nodes, agent.Node{ID: "hook", Type: agent.NodeAPI, Data: map[string]any{"apiMethod": "POST"}})
	a.Edges = append(a.Edges, agent.Edge{Source: "llm", Target: "hook"})

	result := ValidateAgent(a)
	if result.IsValid || result.Errors[0].Type != CheckSchemas || !strings.Contains(result.Errors[0].Message, "hook") {
		t.Errorf("result = %+v", result)
	}
}

func TestValidateAgent_UnreachableOutputWarns(t *testing.T) {
	a := linearAgent()
	a.Edges = []agent.Edge{{Source: "in", Target: "llm"}, {Source: "out", Target: "llm"}}

	result := ValidateAgent(a)
	if !containsWarning(result.Warnings, "out", "alcançável") {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestValidateAgent_ProviderWarnings(t *testing.T) {
	a := linearAgent()
	a.Nodes[1].Data["provider"] = " "
	if result := ValidateAgent(a); !containsWarning(result.Warnings, "Provedor de IA não especificado") {
		t.Errorf("warnings = %v", result.Warnings)
	}

	a = linearAgent()
	result := ValidateAgent(a, WithConfiguredProviders(ai.Anthropic))
	if !containsWarning(result.Warnings, "openai", "credencial") {
		t.Errorf("warnings = %v", result.Warnings)
	}
	if result := ValidateAgent(a, WithConfiguredProviders(ai.OpenAI)); containsWarning(result.Warnings, "credencial") {
		t.Errorf("configured provider flagged: %v", result.Warnings)
	}
}

func TestValidateNode_AI(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]any
		wantValid bool
		warning   string
	}{
		{"missing provider", map[string]any{"prompt": "x"}, false, ""},
		{"unknown provider", map[string]any{"provider": "cohere", "prompt": "x"}, false, ""},
		{"missing prompt", map[string]any{"provider": "openai"}, false, ""},
		{"short prompt", map[string]any{"provider": "openai", "prompt": "Analise"}, true, "curto"},
		{"no verb", map[string]any{"provider": "openai", "prompt": "Um texto qualquer sobre contratos"}, true, "instruções"},
		{"json without structure", map[string]any{"provider": "openai", "prompt": "Analise o texto e responda em JSON"}, true, "estruturado"},
		{"unknown model", map[string]any{"provider": "google", "model": "gemini-ultra", "prompt": "Analise o texto recebido"}, true, "gemini-ultra"},
		{"temperature", map[string]any{"provider": "openai", "temperature": 2.5, "prompt": "Analise o texto recebido"}, true, "Temperatura"},
		{"max tokens", map[string]any{"provider": "openai", "maxTokens": 0, "prompt": "Analise o texto recebido"}, true, "maxTokens"},
		{"huggingface any model", map[string]any{"provider": "huggingface", "model": "mistralai/Mistral-7B", "prompt": "Analise o texto recebido"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateNode(agent.Node{ID: "n", Type: agent.NodeAI, Data: tt.data}, nil)
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, result = %+v", result.Valid, result)
			}
			if tt.warning != "" && !containsWarning(result.Warnings, tt.warning) {
				t.Errorf("warnings %v missing %q", result.Warnings, tt.warning)
			}
			if tt.name == "huggingface any model" && containsWarning(result.Warnings, "Modelo") {
				t.Errorf("huggingface model flagged: %v", result.Warnings)
			}
		})
	}
}

func TestValidateNode_API(t *testing.T) {
	node := func(data map[string]any) agent.Node { return agent.Node{ID: "api", Type: agent.NodeAPI, Data: data} }

	if result := ValidateNode(node(nil), nil); result.Valid {
		t.Error("missing endpoint must fail")
	}
	if result := ValidateNode(node(map[string]any{"apiEndpoint": "ftp://files"}), nil); result.Valid {
		t.Error("non-http endpoint must fail")
	}

	result := ValidateNode(node(map[string]any{"apiEndpoint": "https://api.example.com/v1"}), nil)
	if !result.Valid || len(result.Warnings) != 2 {
		t.Errorf("result = %+v, want method and auth warnings", result)
	}
}

func TestValidateNode_LogicInputOutput(t *testing.T) {
	a := linearAgent()
	logic := agent.Node{ID: "llm", Type: agent.NodeLogic}
	if result := ValidateNode(logic, a); len(result.Warnings) != 2 {
		t.Errorf("logic warnings = %v", result.Warnings)
	}

	input := agent.Node{ID: "in", Type: agent.NodeInput, Data: map[string]any{
		"inputSchema": map[string]any{"properties": map[string]any{"nome": map[string]any{"type": "string"}}},
	}}
	if result := ValidateNode(input, nil); !containsWarning(result.Warnings, "nome") {
		t.Errorf("input warnings = %v", result.Warnings)
	}

	output := agent.Node{ID: "out", Type: agent.NodeOutput}
	if result := ValidateNode(output, nil); !result.Valid || !containsWarning(result.Warnings, "schema") {
		t.Errorf("output result = %+v", result)
	}

	if result := ValidateNode(agent.Node{ID: "x", Type: "webhook"}, nil); result.Valid {
		t.Error("unknown node type must fail")
	}
}

func TestValidatePayload(t *testing.T) {
	schema := &agent.Schema{
		Properties: map[string]*agent.Schema{
			"nome":  {Type: "string"},
			"idade": {Type: "number"},
			"nivel": {Type: "string", Enum: []any{"junior", "senior"}},
		},
		Required: []string{"nome"},
	}

	if err := ValidatePayload(schema, map[string]any{"nome": "Ana", "idade": 30, "nivel": "senior"}); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	err := ValidatePayload(schema, map[string]any{"idade": "trinta", "nivel": "pleno"})
	if err == nil {
		t.Fatal("invalid payload accepted")
	}
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("err = %#v", err)
	}
	violations, _ := appErr.Context["violations"].([]string)
	if len(violations) < 2 {
		t.Errorf("violations = %v, want one per problem", violations)
	}

	if err := ValidatePayload(nil, map[string]any{"x": 1}); err != nil {
		t.Errorf("empty schema must accept anything: %v", err)
	}
}
