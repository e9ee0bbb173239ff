package middleware

import (
	"context"
	"time"

	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/providers/ai"
)

// NewTimeoutMiddleware enforces a per-attempt deadline on both synchronous and
// streaming provider calls. A non-positive timeout returns a pass-through
// middleware.
//
// For streams the cancel function runs once the stream is consumed, errors, or
// is abandoned, so the deadline governs the whole stream lifetime. A shorter
// deadline already on the caller's context still wins.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	if timeout <= 0 {
		return client.MiddlewareConfig{
			Send: func(next client.SendFunc) client.SendFunc { return next },
		}
	}

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				return next(ctx, request)
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)

				stream, err := next(ctx, request)
				if err != nil {
					cancel()
					return nil, err
				}

				return wrapStreamWithCancel(stream, cancel), nil
			}
		},
	}
}

// wrapStreamWithCancel returns a ChatStream that calls cancel once the
// underlying stream finishes, errors, or the caller stops iterating.
func wrapStreamWithCancel(stream *ai.ChatStream, cancel context.CancelFunc) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer cancel()

		for event, err := range stream.Iter() {
			if !yield(event, err) || err != nil || event.Type == ai.StreamEventDone {
				return
			}
		}
	})
}
