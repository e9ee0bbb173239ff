package middleware

import (
	"context"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/providers/ai"
)

// NewRetryMiddleware constructs a MiddlewareConfig that retries failed send
// requests according to options. Zero-valued fields are replaced with the
// defaults documented on [apperr.RetryOptions]. Only errors reported as
// retryable are retried.
//
// The Stream field of the returned MiddlewareConfig is nil; streaming requests
// bypass this middleware because mid-stream errors cannot be transparently retried.
//
// On exhaustion the returned error wraps both [apperr.ErrRetryExhausted] and
// the last provider error.
func NewRetryMiddleware(options apperr.RetryOptions) client.MiddlewareConfig {
	sendMiddleware := client.Middleware(func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			return apperr.Retry(ctx, options, func(ctx context.Context) (*ai.ChatResponse, error) {
				return next(ctx, request)
			})
		}
	})

	return client.MiddlewareConfig{Send: sendMiddleware}
}
