// Package mock provides a scripted [ai.Provider] for tests. It never performs
// network I/O.
package mock

import (
	"context"
	"net/http"
	"sync"

	"github.com/leofalp/agentgraph/providers/ai"
)

// Provider replays a scripted sequence of responses and errors. Once the
// script is exhausted it answers with Fallback, or a canned JSON reply.
type Provider struct {
	id     ai.ProviderID
	apiKey string

	mu        sync.Mutex
	responses []*ai.ChatResponse
	errors    []error
	requests  []ai.ChatRequest

	// Fallback is returned after the script runs out.
	Fallback *ai.ChatResponse
}

// New returns a configured mock for id.
func New(id ai.ProviderID) *Provider {
	return &Provider{id: id, apiKey: "test-key"}
}

// Script appends one step: a non-nil err makes that call fail.
func (p *Provider) Script(response *ai.ChatResponse, err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, response)
	p.errors = append(p.errors, err)
	return p
}

// FailWith scripts n consecutive failures.
func (p *Provider) FailWith(err error, n int) *Provider {
	for range n {
		p.Script(nil, err)
	}
	return p
}

// Reply scripts a successful answer with content.
func (p *Provider) Reply(content string) *Provider {
	return p.Script(&ai.ChatResponse{Content: content, FinishReason: "stop", Usage: &ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}, nil)
}

// Calls returns how many requests were received.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of every request received.
func (p *Provider) Requests() []ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.ChatRequest(nil), p.requests...)
}

func (p *Provider) ID() ai.ProviderID { return p.id }

func (p *Provider) Configured() bool { return ai.HasCredential(p.apiKey) }

func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	index := len(p.requests)
	p.requests = append(p.requests, request)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if index < len(p.errors) && p.errors[index] != nil {
		return nil, p.errors[index]
	}
	if index < len(p.responses) && p.responses[index] != nil {
		response := *p.responses[index]
		if response.Model == "" {
			response.Model = request.Model
		}
		return &response, nil
	}
	if p.Fallback != nil {
		response := *p.Fallback
		return &response, nil
	}
	return &ai.ChatResponse{Content: `{"ok":true}`, Model: request.Model, FinishReason: "stop"}, nil
}

func (p *Provider) IsStopMessage(message *ai.ChatResponse) bool {
	return message != nil && message.FinishReason == "stop"
}

func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *Provider) WithBaseURL(string) ai.Provider { return p }

func (p *Provider) WithHttpClient(*http.Client) ai.Provider { return p }

// StreamProvider wraps Provider with native streaming that splits the reply
// into one event per word.
type StreamProvider struct {
	*Provider
	StreamCalls int

	interruptAfter int
	interruptErr   error
}

// NewStreaming returns a mock that implements [ai.StreamProvider].
func NewStreaming(id ai.ProviderID) *StreamProvider {
	return &StreamProvider{Provider: New(id)}
}

// Interrupt makes every stream fail with err after n content events.
func (s *StreamProvider) Interrupt(n int, err error) *StreamProvider {
	s.interruptAfter = n
	s.interruptErr = err
	return s
}

func (s *StreamProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	s.StreamCalls++
	response, err := s.SendMessage(ctx, request)
	if err != nil {
		return nil, err
	}
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for i, chunk := range splitKeep(response.Content) {
			if s.interruptErr != nil && i == s.interruptAfter {
				yield(ai.StreamEvent{}, s.interruptErr)
				return
			}
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: chunk}, nil) {
				return
			}
		}
		yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: response.FinishReason}, nil)
	}), nil
}

func splitKeep(content string) []string {
	var chunks []string
	start := 0
	for i, r := range content {
		if r == ' ' {
			chunks = append(chunks, content[start:i+1])
			start = i + 1
		}
	}
	if start < len(content) {
		chunks = append(chunks, content[start:])
	}
	return chunks
}
