package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/internal/utils"
	"github.com/leofalp/agentgraph/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs provider, model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the user prompt and response content, truncated.
	//
	// WARNING: prompts and responses may carry personal data extracted from
	// uploaded documents. Do not enable this level in production.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose log output.
const truncateLen = 500

// NewLoggingMiddleware emits structured slog entries before and after every
// provider call. For streams the completion entry is emitted once the
// iterator is consumed.
func NewLoggingMiddleware(logger *slog.Logger, provider ai.ProviderID, level LogLevel) client.MiddlewareConfig {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("provider", provider.String()))

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				logger.DebugContext(ctx, "llm send", requestAttrs(request, level)...)

				start := time.Now()
				response, err := next(ctx, request)
				elapsed := time.Since(start)

				if err != nil {
					logger.WarnContext(ctx, "llm send failed",
						slog.String("model", request.Model),
						slog.Duration("duration", elapsed),
						slog.String("error", err.Error()),
					)
					return nil, err
				}

				logger.InfoContext(ctx, "llm send completed", responseAttrs(response, elapsed, level)...)
				return response, nil
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				logger.DebugContext(ctx, "llm stream", requestAttrs(request, level)...)

				start := time.Now()
				stream, err := next(ctx, request)
				if err != nil {
					logger.WarnContext(ctx, "llm stream failed",
						slog.String("model", request.Model),
						slog.Duration("duration", time.Since(start)),
						slog.String("error", err.Error()),
					)
					return nil, err
				}

				return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
					var usage *ai.Usage
					for event, err := range stream.Iter() {
						if err != nil {
							logger.WarnContext(ctx, "llm stream failed",
								slog.String("model", request.Model),
								slog.Duration("duration", time.Since(start)),
								slog.String("error", err.Error()),
							)
							yield(event, err)
							return
						}
						if event.Usage != nil {
							usage = event.Usage
						}
						if !yield(event, nil) {
							logger.InfoContext(ctx, "llm stream abandoned", slog.String("model", request.Model))
							return
						}
					}

					attrs := []any{slog.String("model", request.Model), slog.Duration("duration", time.Since(start))}
					if usage != nil {
						attrs = append(attrs, slog.Int("total_tokens", usage.TotalTokens))
					}
					logger.InfoContext(ctx, "llm stream completed", attrs...)
				}), nil
			}
		},
	}
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("message_count", len(request.Messages)))
	}

	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		last := request.Messages[len(request.Messages)-1]
		attrs = append(attrs, slog.String("prompt", utils.TruncateString(last.Content, truncateLen)))
	}

	return attrs
}

func responseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.TotalTokens()),
		)
	}

	if level >= LogLevelStandard && response.FinishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
	}

	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs, slog.String("response_content", utils.TruncateString(response.Content, truncateLen)))
	}

	return attrs
}
