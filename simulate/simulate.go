// Package simulate walks a validated agent graph without calling any
// provider and produces a synthetic execution trace.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/strategy"
	"github.com/leofalp/agentgraph/synth"
)

// ErrMissingEndpoints is returned when the graph lacks an input or an output
// node. Callers are expected to validate first; the simulator checks anyway.
var ErrMissingEndpoints = errors.New("agent must have input and output nodes to simulate")

// Output is the synthetic result of a dry run.
type Output struct {
	ProcessedInput    map[string]any `json:"processed_input"`
	AIProcessingCount int            `json:"ai_processing_count"`
	APICallsCount     int            `json:"api_calls_count"`
	ExecutionPath     []string       `json:"execution_path"`
	Timestamp         time.Time      `json:"timestamp"`
	ExpectedOutput    map[string]any `json:"expected_output,omitempty"`
}

// Simulate visits nodes in topological order, counts ai and api nodes and
// shapes an expected output from the first output node's schema. The
// strategy's TestTimeout bounds the run when ctx has no earlier deadline.
func Simulate(ctx context.Context, a *agent.Agent, testData map[string]any, s strategy.Strategy) (*Output, error) {
	if s.TestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TestTimeout)
		defer cancel()
	}

	outputs := a.NodesOfType(agent.NodeOutput)
	if len(a.NodesOfType(agent.NodeInput)) == 0 || len(outputs) == 0 {
		return nil, ErrMissingEndpoints
	}

	order, err := a.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("simulate agent %s: %w", a.ID, err)
	}

	out := &Output{
		ProcessedInput: testData,
		ExecutionPath:  make([]string, 0, len(order)),
		Timestamp:      time.Now().UTC(),
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulate agent %s at node %s: %w", a.ID, id, err)
		}

		node, _ := a.Node(id)
		switch node.Kind() {
		case agent.NodeAI:
			out.AIProcessingCount++
		case agent.NodeAPI:
			out.APICallsCount++
		}
		out.ExecutionPath = append(out.ExecutionPath, id)
	}

	if data, err := outputs[0].Output(); err == nil && !data.OutputSchema.Empty() {
		out.ExpectedOutput = synth.OutputFor(data.OutputSchema)
	}

	return out, nil
}
