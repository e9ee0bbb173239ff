package testengine

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/store"
	"github.com/leofalp/agentgraph/strategy"
)

func linearAgent() *agent.Agent {
	return &agent.Agent{
		ID: "resumo",
		Nodes: []agent.Node{
			{ID: "in", Type: agent.NodeInput, Data: map[string]any{
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"texto": map[string]any{"type": "string", "description": "Texto a resumir"},
					},
					"required": []any{"texto"},
				},
			}},
			{ID: "llm", Type: agent.NodeAI, Data: map[string]any{
				"provider": "openai",
				"model":    "gpt-4o-mini",
				"prompt":   "Analise o texto recebido e gere um resumo executivo",
			}},
			{ID: "out", Type: agent.NodeOutput, Data: map[string]any{
				"outputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"resumo": map[string]any{"type": "string", "description": "Resumo"},
					},
				},
			}},
		},
		Edges: []agent.Edge{
			{ID: "e1", Source: "in", Target: "llm"},
			{ID: "e2", Source: "llm", Target: "out"},
		},
	}
}

func newEngine(opts ...Option) *Engine {
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return New(append(base, opts...)...)
}

func TestTestAgent_Completed(t *testing.T) {
	e := newEngine()

	execution, err := e.TestAgent(context.Background(), linearAgent(), nil)
	if err != nil {
		t.Fatalf("TestAgent() error = %v", err)
	}
	if execution.Status != StatusCompleted {
		t.Fatalf("Status = %s, results = %+v", execution.Status, execution.Results)
	}
	if execution.ID == "" || execution.EndTime == nil {
		t.Errorf("execution = %+v", execution)
	}
	if execution.TestData["texto"] != "Teste texto" {
		t.Errorf("TestData = %v, want synthesized texto", execution.TestData)
	}

	results := execution.Results
	if !results.ValidationResults.Structure || !results.ValidationResults.CategorySpecific {
		t.Errorf("ValidationResults = %+v", results.ValidationResults)
	}
	if len(results.ValidationResults.NodeValidations) != 3 {
		t.Errorf("NodeValidations = %d, want 3", len(results.ValidationResults.NodeValidations))
	}
	if results.Output == nil || results.Output.AIProcessingCount != 1 {
		t.Fatalf("Output = %+v", results.Output)
	}
	if results.Output.ExpectedOutput["resumo"] != "Resultado resumo" {
		t.Errorf("ExpectedOutput = %v", results.Output.ExpectedOutput)
	}
}

func TestTestAgent_StructuralFailure(t *testing.T) {
	a := linearAgent()
	a.Nodes = a.Nodes[:2]
	a.Edges = a.Edges[:1]

	execution, err := newEngine().TestAgent(context.Background(), a, nil)
	if err != nil {
		t.Fatalf("TestAgent() error = %v", err)
	}
	if execution.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", execution.Status)
	}
	if len(execution.Results.Errors) == 0 || !strings.Contains(execution.Results.Errors[0].Message, "output") {
		t.Errorf("Errors = %+v", execution.Results.Errors)
	}
	if execution.Results.Recommendations[0] != "Corrigir erros estruturais antes de prosseguir" {
		t.Errorf("Recommendations = %v", execution.Results.Recommendations)
	}
}

func TestTestAgent_TestDataMismatchIsWarning(t *testing.T) {
	execution, err := newEngine().TestAgent(context.Background(), linearAgent(), map[string]any{"texto": 42})
	if err != nil {
		t.Fatalf("TestAgent() error = %v", err)
	}
	if execution.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", execution.Status)
	}

	found := false
	for _, warning := range execution.Results.Warnings {
		if strings.Contains(warning, "Dados de teste") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want a test data mismatch", execution.Results.Warnings)
	}
}

func TestTestAgent_Timeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	execution, err := newEngine().TestAgent(ctx, linearAgent(), nil)
	if err != nil {
		t.Fatalf("TestAgent() error = %v", err)
	}
	if execution.Status != StatusTimeout {
		t.Errorf("Status = %s, want timeout", execution.Status)
	}
}

func TestTestAgent_AdvancedSkipsSimulation(t *testing.T) {
	a := linearAgent()
	for i := range 3 {
		id := string(rune('a' + i))
		a.Nodes = append(a.Nodes, agent.Node{ID: id, Type: agent.NodeAI, Data: map[string]any{
			"provider": "anthropic",
			"prompt":   "Analise o texto e extraia as entidades relevantes",
		}})
		a.Edges = append(a.Edges, agent.Edge{ID: "x" + id, Source: "llm", Target: id})
	}

	execution, err := newEngine().TestAgent(context.Background(), a, nil)
	if err != nil {
		t.Fatalf("TestAgent() error = %v", err)
	}
	if execution.Strategy.Complexity != agent.Advanced {
		t.Fatalf("Complexity = %s, want advanced", execution.Strategy.Complexity)
	}
	if execution.Results.Output != nil {
		t.Errorf("Output = %+v, want no simulation", execution.Results.Output)
	}
}

type statusRecorder struct{ statuses []Status }

func (r *statusRecorder) ObserveTest(_ string, status Status, _ time.Duration) {
	r.statuses = append(r.statuses, status)
}

func TestEngine_RegistryAndStore(t *testing.T) {
	history := store.NewMemory()
	observer := &statusRecorder{}
	e := newEngine(WithStore(history), WithObserver(observer))

	execution, err := e.TestAgent(context.Background(), linearAgent(), nil)
	if err != nil {
		t.Fatalf("TestAgent() error = %v", err)
	}

	if got := e.Running(); len(got) != 1 {
		t.Fatalf("Running() = %d executions, want 1", len(got))
	}
	if removed := e.Cleanup(0); removed != 1 {
		t.Errorf("Cleanup(0) = %d, want 1", removed)
	}
	if got := e.Running(); len(got) != 0 {
		t.Errorf("Running() after cleanup = %d", len(got))
	}

	stored, ok := e.Status(context.Background(), execution.ID)
	if !ok {
		t.Fatal("Status() did not fall back to the store")
	}
	if stored.Status != StatusCompleted || stored.AgentID != "resumo" {
		t.Errorf("stored = %+v", stored)
	}

	if _, ok := e.Status(context.Background(), "missing"); ok {
		t.Error("Status(missing) = ok")
	}
	if len(observer.statuses) != 1 || observer.statuses[0] != StatusCompleted {
		t.Errorf("observer = %v", observer.statuses)
	}
}

func TestEngine_CleanupKeepsRecent(t *testing.T) {
	e := newEngine()
	if _, err := e.TestAgent(context.Background(), linearAgent(), nil); err != nil {
		t.Fatalf("TestAgent() error = %v", err)
	}
	if removed := e.Cleanup(time.Hour); removed != 0 {
		t.Errorf("Cleanup(1h) = %d, want 0", removed)
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		plan     strategy.Strategy
		nodes    int
		warnings []string
		want     string
	}{
		{"crowded beginner", strategy.Strategy{Complexity: agent.Beginner}, 6, nil, "simplificar"},
		{"thin advanced", strategy.Strategy{Complexity: agent.Advanced}, 3, nil, "mais nós"},
		{"ai without logic", strategy.Strategy{NodeTypes: []agent.NodeType{agent.NodeAI}}, 3, nil, "nó de lógica"},
		{"api without logic", strategy.Strategy{NodeTypes: []agent.NodeType{agent.NodeAPI}}, 3, nil, "chamadas de API"},
		{"prompt warnings", strategy.Strategy{}, 3, []string{"[llm] Prompt muito curto"}, "qualidade dos prompts"},
		{"schema warnings", strategy.Strategy{}, 3, []string{"Nó sem schema definido"}, "Defina schemas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &agent.Agent{Nodes: make([]agent.Node, tt.nodes)}
			got := Recommendations(a, tt.plan, tt.warnings)
			if !strings.Contains(strings.Join(got, "|"), tt.want) {
				t.Errorf("Recommendations() = %v, want one containing %q", got, tt.want)
			}
		})
	}
}
