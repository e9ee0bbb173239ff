package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/internal/utils"
	"github.com/leofalp/agentgraph/providers/ai"
)

// NewErrorMiddleware converts every native failure returned by the adapter
// into an [*apperr.AppError] tagged with provider. It should sit innermost so
// that retry and logging middlewares see classified errors.
func NewErrorMiddleware(provider ai.ProviderID) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				response, err := next(ctx, request)
				if err != nil {
					return nil, ClassifyProviderError(provider, request.Model, err)
				}
				return response, nil
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				stream, err := next(ctx, request)
				if err != nil {
					return nil, ClassifyProviderError(provider, request.Model, err)
				}
				return stream, nil
			}
		},
	}
}

// ClassifyProviderError maps an adapter error onto the taxonomy:
//   - 429 or quota wording: AI_QUOTA_EXCEEDED, retryable
//   - 401/403: AI_PROVIDER_ERROR, terminal for this provider
//   - 400/404/422: AI_PROVIDER_ERROR, terminal
//   - 5xx and 529: AI_PROVIDER_ERROR, retryable
//   - deadline exceeded: AI_TIMEOUT, retryable
//   - anything else: classified by message, wrapped as AI_PROVIDER_ERROR
func ClassifyProviderError(provider ai.ProviderID, model string, err error) *apperr.AppError {
	var existing *apperr.AppError
	if errors.As(err, &existing) {
		return existing
	}

	fields := map[string]any{"provider": provider.String(), "model": model}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.New(apperr.KindAITimeout, err.Error(), apperr.WithCause(err), apperr.WithFields(fields))
	}

	var httpErr *utils.HTTPError
	if errors.As(err, &httpErr) {
		fields["status"] = httpErr.StatusCode
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return apperr.New(apperr.KindAIQuotaExceeded, err.Error(), apperr.WithCause(err), apperr.WithFields(fields))
		case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
			return apperr.AIProvider(provider.String(), err,
				apperr.WithRetryable(false),
				apperr.WithFields(fields),
				apperr.WithSuggestedAction("Verifique a chave de API configurada para este provedor."),
			)
		case httpErr.StatusCode >= 500:
			return apperr.AIProvider(provider.String(), err, apperr.WithFields(fields))
		default:
			return apperr.AIProvider(provider.String(), err, apperr.WithRetryable(false), apperr.WithFields(fields))
		}
	}

	classified := apperr.Handle(err, fields)
	switch classified.Kind {
	case apperr.KindAIQuotaExceeded:
		return classified
	case apperr.KindTimeout:
		return apperr.New(apperr.KindAITimeout, err.Error(), apperr.WithCause(err), apperr.WithFields(fields))
	case apperr.KindNetwork:
		return apperr.AIProvider(provider.String(), err, apperr.WithFields(fields))
	default:
		return apperr.AIProvider(provider.String(), err, apperr.WithRetryable(false), apperr.WithFields(fields))
	}
}
