package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/providers/ai"
)

// AutoResult reports which provider served an automatic-fallback call.
type AutoResult struct {
	*Response
	ActualProvider ai.ProviderID `json:"actualProvider"`
	FallbackUsed   bool          `json:"fallbackUsed"`
}

// GenerateWithAutoFallback tries the preferred provider (when available)
// and then the rest of the fallback order, each with its default model and
// internal fallback disabled.
func (o *Orchestrator) GenerateWithAutoFallback(ctx context.Context, preferred ai.ProviderID, prompt string, opts Options) (*AutoResult, error) {
	opts.DisableFallback = true

	order := o.order
	if preferred != "" && o.IsAvailable(preferred) {
		order = o.candidates(preferred)
	}

	var lastErr error
	for i, id := range order {
		if !o.IsAvailable(id) {
			continue
		}

		response, err := o.GenerateCompletion(ctx, id, prompt, "", opts)
		if err != nil {
			lastErr = err
			o.logger.WarnContext(ctx, "auto fallback: provider failed", slog.String("provider", id.String()), slog.String("error", err.Error()))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		return &AutoResult{Response: response, ActualProvider: id, FallbackUsed: i > 0}, nil
	}

	technical := "All AI providers are unavailable or failed"
	if lastErr != nil {
		technical += ": " + lastErr.Error()
	}
	return nil, apperr.New(apperr.KindAIProvider, technical,
		apperr.WithCause(lastErr),
		apperr.WithSeverity(apperr.SeverityCritical),
		apperr.WithSuggestedAction("Verifique a configuração dos provedores de IA."),
	)
}

// TestProvider sends a short ping through id alone and reports whether the
// answer contains "ok".
func (o *Orchestrator) TestProvider(ctx context.Context, id ai.ProviderID) bool {
	response, err := o.GenerateCompletion(ctx, id, PingPrompt, "", Options{MaxTokens: 10, DisableFallback: true})
	if err != nil {
		o.logger.WarnContext(ctx, "provider test failed", slog.String("provider", id.String()), slog.String("error", err.Error()))
		return false
	}
	return response.Provider == id && strings.Contains(strings.ToLower(response.Content), "ok")
}
