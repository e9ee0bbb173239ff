package strategy

import (
	"reflect"
	"testing"
	"time"

	"github.com/leofalp/agentgraph/agent"
)

func chain(kinds ...agent.NodeType) *agent.Agent {
	a := &agent.Agent{ID: "a"}
	for i, kind := range kinds {
		id := string(kind) + string(rune('0'+i))
		a.Nodes = append(a.Nodes, agent.Node{ID: id, Type: kind})
		if i > 0 {
			a.Edges = append(a.Edges, agent.Edge{Source: a.Nodes[i-1].ID, Target: id})
		}
	}
	return a
}

func TestComplexityOf(t *testing.T) {
	tests := []struct {
		name  string
		agent *agent.Agent
		want  agent.Complexity
	}{
		{"three nodes one ai", chain(agent.NodeInput, agent.NodeAI, agent.NodeOutput), agent.Beginner},
		{"api makes it intermediate", chain(agent.NodeInput, agent.NodeAPI, agent.NodeOutput), agent.Intermediate},
		{"two ai in six nodes", chain(agent.NodeInput, agent.NodeAI, agent.NodeLogic, agent.NodeAI, agent.NodeAPI, agent.NodeOutput), agent.Intermediate},
		{"three ai", chain(agent.NodeInput, agent.NodeAI, agent.NodeAI, agent.NodeAI, agent.NodeOutput), agent.Advanced},
		{"seven nodes", chain(agent.NodeInput, agent.NodeLogic, agent.NodeLogic, agent.NodeLogic, agent.NodeLogic, agent.NodeLogic, agent.NodeOutput), agent.Advanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComplexityOf(tt.agent); got != tt.want {
				t.Errorf("ComplexityOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectAgentType_DerivedFields(t *testing.T) {
	a := chain(agent.NodeInput, agent.NodeAI, agent.NodeOutput)
	a.Nodes[1].Data = map[string]any{"provider": "anthropic", "prompt": "Resuma"}
	a.Nodes[0].Data = map[string]any{"inputSchema": map[string]any{
		"properties": map[string]any{"texto": map[string]any{"type": "string"}},
	}}

	s := DetectAgentType(a)
	if s.Category != CategoryCustom {
		t.Errorf("Category = %q", s.Category)
	}
	if s.Complexity != agent.Beginner || s.TestTimeout != 30*time.Second || s.Retries != 3 {
		t.Errorf("strategy = %+v", s)
	}
	if !reflect.DeepEqual(s.Providers, []string{"anthropic"}) {
		t.Errorf("Providers = %v", s.Providers)
	}
	if !reflect.DeepEqual(s.NodeTypes, []agent.NodeType{agent.NodeInput, agent.NodeAI, agent.NodeOutput}) {
		t.Errorf("NodeTypes = %v", s.NodeTypes)
	}
	if _, ok := s.RequiredInputs["texto"]; !ok {
		t.Errorf("RequiredInputs = %v", s.RequiredInputs)
	}
	if !reflect.DeepEqual(s.Validations, []string{"basic_flow", "output_format"}) {
		t.Errorf("Validations = %v", s.Validations)
	}
}

func TestTimeoutAndRetriesByComplexity(t *testing.T) {
	if TimeoutFor(agent.Intermediate) != time.Minute || RetriesFor(agent.Intermediate) != 2 {
		t.Error("intermediate mismatch")
	}
	if TimeoutFor(agent.Advanced) != 2*time.Minute || RetriesFor(agent.Advanced) != 1 {
		t.Error("advanced mismatch")
	}
}

func TestInferCategory(t *testing.T) {
	explicit := chain(agent.NodeInput, agent.NodeOutput)
	explicit.Category = "Financeiro"
	if got := DetectAgentType(explicit).Category; got != "Financeiro" {
		t.Errorf("explicit category overridden: %q", got)
	}

	byPrompt := chain(agent.NodeInput, agent.NodeAI, agent.NodeOutput)
	byPrompt.Nodes[1].Data = map[string]any{"prompt": "Revise o CONTRATO anexo"}
	if got := InferCategory(byPrompt); got != CategoryHRLegal {
		t.Errorf("prompt inference = %q", got)
	}

	byField := chain(agent.NodeInput, agent.NodeOutput)
	byField.Nodes[0].Data = map[string]any{"inputSchema": map[string]any{
		"properties": map[string]any{"documentos": map[string]any{"type": "array"}},
	}}
	if got := InferCategory(byField); got != CategoryHRLegal {
		t.Errorf("field inference = %q", got)
	}

	if got := InferCategory(chain(agent.NodeInput, agent.NodeOutput)); got != CategoryCustom {
		t.Errorf("default = %q", got)
	}
}

func TestValidatorFor(t *testing.T) {
	if _, ok := ValidatorFor(CategoryHRLegal).(HRLegalValidator); !ok {
		t.Error("HR category must select HRLegalValidator")
	}
	for _, category := range []string{CategoryCustom, "", "Marketing"} {
		if _, ok := ValidatorFor(category).(GenericValidator); !ok {
			t.Errorf("category %q must fall back to GenericValidator", category)
		}
	}
}

func TestHRLegalValidator(t *testing.T) {
	v := HRLegalValidator{}

	noAI := chain(agent.NodeInput, agent.NodeOutput)
	if result := v.ValidateCategory(noAI); result.Valid {
		t.Error("HR agent without ai node must fail")
	}

	withAI := chain(agent.NodeInput, agent.NodeAI, agent.NodeOutput)
	withAI.Nodes[1].Data = map[string]any{"prompt": "Analise o contrato"}
	result := v.ValidateCategory(withAI)
	if !result.Valid || len(result.Warnings) != 1 {
		t.Errorf("result = %+v, want valid with output schema warning", result)
	}

	data := v.GenerateTestData(withAI)
	if data["vaga"] != "Desenvolvedor" {
		t.Errorf("GenerateTestData = %v", data)
	}

	if cases := v.TestCases("contract-analyzer"); len(cases) != 1 || cases[0].TestData["file"] != "contrato-exemplo.pdf" {
		t.Errorf("TestCases = %+v", cases)
	}
	if cases := v.TestCases("unknown"); cases != nil {
		t.Errorf("unknown agent should have no canned cases, got %v", cases)
	}
}

func TestGenericValidator(t *testing.T) {
	v := GenericValidator{}

	if result := v.ValidateCategory(chain(agent.NodeAI)); result.Valid {
		t.Error("missing input and output must fail")
	}

	a := chain(agent.NodeInput, agent.NodeAI, agent.NodeAPI, agent.NodeOutput)
	a.Nodes[2].Data = map[string]any{"apiEndpoint": "https://example.com"}
	result := v.ValidateCategory(a)
	if result.Valid || len(result.Warnings) != 1 {
		t.Errorf("ai node without prompt must fail, got %+v", result)
	}

	a.Nodes[1].Data = map[string]any{"prompt": "Gere um resumo"}
	if result := v.ValidateCategory(a); !result.Valid {
		t.Errorf("result = %+v", result)
	}

	if data := v.GenerateTestData(a); data["input"] == nil {
		t.Errorf("empty schema should produce the generic payload, got %v", data)
	}
	if len(v.TestCases("x")) != 1 {
		t.Error("generic validator always has one test case")
	}
}
