package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/agentgraph/providers/ai"
)

// Pipeline is an immutable provider plus its prebuilt middleware chains.
type Pipeline struct {
	provider ai.Provider
	send     SendFunc
	stream   StreamFunc
}

// New builds a Pipeline around provider. Every middleware must carry a
// non-nil Send function.
func New(provider ai.Provider, middlewares ...MiddlewareConfig) (*Pipeline, error) {
	if provider == nil {
		return nil, errors.New("client: provider is nil")
	}

	for i, middleware := range middlewares {
		if middleware.Send == nil {
			return nil, fmt.Errorf("client: middleware at index %d has a nil Send function", i)
		}
	}

	return &Pipeline{
		provider: provider,
		send:     buildSendChain(provider, middlewares),
		stream:   buildStreamChain(provider, middlewares),
	}, nil
}

// Provider returns the wrapped provider.
func (p *Pipeline) Provider() ai.Provider {
	return p.provider
}

// SupportsStreaming reports whether the provider streams natively.
func (p *Pipeline) SupportsStreaming() bool {
	_, ok := p.provider.(ai.StreamProvider)
	return ok
}

// Send runs request through the send chain.
func (p *Pipeline) Send(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return p.send(ctx, request)
}

// Stream runs request through the stream chain. Providers without native
// streaming answer with a single-event stream.
func (p *Pipeline) Stream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	return p.stream(ctx, request)
}
