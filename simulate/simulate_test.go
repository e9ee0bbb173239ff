package simulate

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/strategy"
)

func graph() *agent.Agent {
	return &agent.Agent{
		ID: "fluxo",
		Nodes: []agent.Node{
			{ID: "out", Type: agent.NodeOutput, Data: map[string]any{
				"outputSchema": map[string]any{"properties": map[string]any{
					"resumo": map[string]any{"type": "string"},
					"score":  map[string]any{"type": "number"},
				}},
			}},
			{ID: "fetch", Type: agent.NodeAPI},
			{ID: "llm", Type: agent.NodeAI},
			{ID: "in", Type: agent.NodeInput},
		},
		Edges: []agent.Edge{
			{Source: "in", Target: "fetch"},
			{Source: "fetch", Target: "llm"},
			{Source: "llm", Target: "out"},
		},
	}
}

func TestSimulate_FollowsEdges(t *testing.T) {
	a := graph()
	input := map[string]any{"texto": "olá"}

	out, err := Simulate(context.Background(), a, input, strategy.DetectAgentType(a))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if want := []string{"in", "fetch", "llm", "out"}; !reflect.DeepEqual(out.ExecutionPath, want) {
		t.Errorf("ExecutionPath = %v, want %v", out.ExecutionPath, want)
	}
	if out.AIProcessingCount != 1 || out.APICallsCount != 1 {
		t.Errorf("counts = %d ai, %d api", out.AIProcessingCount, out.APICallsCount)
	}
	if out.ExpectedOutput["resumo"] != "Resultado resumo" || out.ExpectedOutput["score"] != 95.5 {
		t.Errorf("ExpectedOutput = %v", out.ExpectedOutput)
	}
	if !reflect.DeepEqual(out.ProcessedInput, input) || out.Timestamp.IsZero() {
		t.Errorf("out = %+v", out)
	}
}

func TestSimulate_MissingEndpoints(t *testing.T) {
	a := graph()
	a.Nodes = a.Nodes[1:]

	if _, err := Simulate(context.Background(), a, nil, strategy.Strategy{}); !errors.Is(err, ErrMissingEndpoints) {
		t.Errorf("err = %v", err)
	}
}

func TestSimulate_Cycle(t *testing.T) {
	a := graph()
	a.Edges = append(a.Edges, agent.Edge{Source: "llm", Target: "fetch"})

	if _, err := Simulate(context.Background(), a, nil, strategy.Strategy{}); !errors.Is(err, agent.ErrCycle) {
		t.Errorf("err = %v", err)
	}
}

func TestSimulate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Simulate(ctx, graph(), nil, strategy.Strategy{TestTimeout: time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestSimulate_NoOutputSchema(t *testing.T) {
	a := graph()
	a.Nodes[0].Data = nil

	out, err := Simulate(context.Background(), a, nil, strategy.Strategy{})
	if err != nil || out.ExpectedOutput != nil {
		t.Errorf("out = %+v, err = %v", out, err)
	}
}
