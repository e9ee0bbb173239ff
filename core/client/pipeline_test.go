package client

import (
	"context"
	"errors"
	"testing"

	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/providers/ai/mock"
)

// callRecorder records the order in which middlewares run.
type callRecorder struct {
	order *[]string
	name  string
}

func (rec callRecorder) config(withStream bool) MiddlewareConfig {
	config := MiddlewareConfig{
		Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				*rec.order = append(*rec.order, rec.name)
				return next(ctx, request)
			}
		},
	}
	if withStream {
		config.Stream = func(next StreamFunc) StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				*rec.order = append(*rec.order, rec.name+"-stream")
				return next(ctx, request)
			}
		}
	}
	return config
}

// TestNew_RejectsNilSend verifies that a middleware without Send is refused.
func TestNew_RejectsNilSend(t *testing.T) {
	_, err := New(mock.New(ai.OpenAI), MiddlewareConfig{})
	if err == nil {
		t.Fatal("expected error for nil Send")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil provider")
	}
}

// TestPipeline_SendOrder verifies outermost-first execution.
func TestPipeline_SendOrder(t *testing.T) {
	var order []string
	provider := mock.New(ai.OpenAI).Reply("hi")

	pipeline, err := New(provider,
		callRecorder{&order, "first"}.config(false),
		callRecorder{&order, "second"}.config(false),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	response, err := pipeline.Send(context.Background(), ai.UserPrompt("m", "", "hello"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if response.Content != "hi" {
		t.Errorf("Content = %q", response.Content)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v", order)
	}
}

// TestPipeline_StreamDegradesWithoutStreamProvider verifies that a provider
// lacking native streaming is answered with a single-event stream and that
// middlewares without a Stream function are skipped.
func TestPipeline_StreamDegradesWithoutStreamProvider(t *testing.T) {
	var order []string
	provider := mock.New(ai.Anthropic).Reply("sync answer")

	pipeline, err := New(provider,
		callRecorder{&order, "outer"}.config(true),
		callRecorder{&order, "send-only"}.config(false),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if pipeline.SupportsStreaming() {
		t.Fatal("mock.Provider must not report native streaming")
	}

	stream, err := pipeline.Stream(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	collected, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if collected.Content != "sync answer" {
		t.Errorf("Content = %q", collected.Content)
	}
	if len(order) != 1 || order[0] != "outer-stream" {
		t.Errorf("order = %v", order)
	}
}

func TestPipeline_NativeStreaming(t *testing.T) {
	provider := mock.NewStreaming(ai.OpenAI)
	provider.Reply("one two three")

	pipeline, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !pipeline.SupportsStreaming() {
		t.Fatal("expected native streaming")
	}

	stream, err := pipeline.Stream(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	collected, err := stream.Collect()
	if err != nil || collected.Content != "one two three" {
		t.Fatalf("collected = %+v, err = %v", collected, err)
	}
	if provider.StreamCalls != 1 {
		t.Errorf("StreamCalls = %d", provider.StreamCalls)
	}
}

func TestPipeline_SendPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	pipeline, _ := New(mock.New(ai.Google).FailWith(boom, 1))

	if _, err := pipeline.Send(context.Background(), ai.ChatRequest{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
