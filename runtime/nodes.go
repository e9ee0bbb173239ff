package runtime

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/validate"
)

// Keys of node results.
const (
	keyResponse     = "response"
	keyResult       = "result"
	keyConditionMet = "conditionMet"
)

const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 2000
)

func executeInput(data agent.InputData, vars map[string]any) (map[string]any, error) {
	if err := validate.ValidatePayload(data.InputSchema, vars); err != nil {
		return nil, err
	}
	return map[string]any{"input_received": true}, nil
}

func (e *Executor) executeAI(ctx context.Context, data agent.AIData, vars map[string]any) (map[string]any, error) {
	if strings.TrimSpace(data.Prompt) == "" {
		return nil, apperr.MissingField("prompt")
	}
	provider, ok := ai.ParseProviderID(data.Provider)
	if !ok {
		return nil, apperr.Validation("provider", fmt.Sprintf("unknown provider %q", data.Provider),
			apperr.WithUserMessage("Provedor de IA inválido no nó."))
	}

	opts := orchestrator.Options{
		Temperature:  defaultTemperature,
		MaxTokens:    defaultMaxTokens,
		SystemPrompt: data.SystemPrompt,
	}
	if data.Temperature != nil {
		opts.Temperature = float32(*data.Temperature)
	}
	if data.MaxTokens != nil && *data.MaxTokens > 0 {
		opts.MaxTokens = *data.MaxTokens
	}

	prompt := RenderPrompt(data.Prompt, vars)
	response, err := apperr.Retry(ctx, e.retry, func(ctx context.Context) (*orchestrator.Response, error) {
		return e.completer.GenerateCompletion(ctx, provider, prompt, data.Model, opts)
	})
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		keyResponse:   response.Content,
		"confidence":  response.Confidence,
		"provider":    string(response.Provider),
		"model":       response.Model,
		"tokens_used": response.TokensUsed,
		"timestamp":   e.now().UTC().Format(time.RFC3339),
	}
	if envelope, err := orchestrator.ParseEnvelope(response.Content); err == nil {
		out["analysis"] = envelope
	}
	return out, nil
}

func (e *Executor) executeOutput(data agent.OutputData, vars map[string]any) map[string]any {
	out := map[string]any{
		keyResult:     maps.Clone(vars),
		"completedAt": e.now().UTC().Format(time.RFC3339),
	}
	if data.Format != "" {
		out["format"] = data.Format
	}
	return out
}
