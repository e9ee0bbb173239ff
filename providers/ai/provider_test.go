package ai

import (
	"errors"
	"testing"
)

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		input string
		want  ProviderID
		ok    bool
	}{
		{"openai", OpenAI, true},
		{" Anthropic ", Anthropic, true},
		{"gemini", Google, true},
		{"google", Google, true},
		{"hf", HuggingFace, true},
		{"mistral", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseProviderID(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseProviderID(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHasCredential(t *testing.T) {
	if HasCredential("") || HasCredential("   \t") {
		t.Error("blank credentials must not count as configured")
	}
	if !HasCredential("sk-123") {
		t.Error("expected non-blank credential to count as configured")
	}
}

// TestSingleEventStream_Collect verifies that the degraded stream reproduces
// the synchronous response.
func TestSingleEventStream_Collect(t *testing.T) {
	response := &ChatResponse{
		Content:      "hello",
		FinishReason: "stop",
		Usage:        &Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	}

	collected, err := NewSingleEventStream(response).Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if collected.Content != "hello" || collected.FinishReason != "stop" {
		t.Errorf("collected = %+v", collected)
	}
	if collected.TotalTokens() != 5 {
		t.Errorf("TotalTokens = %d, want 5", collected.TotalTokens())
	}
}

func TestChatStream_CollectStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	stream := NewChatStream(func(yield func(StreamEvent, error) bool) {
		if !yield(StreamEvent{Type: StreamEventContent, Content: "par"}, nil) {
			return
		}
		yield(StreamEvent{}, boom)
	})

	partial, err := stream.Collect()
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if partial.Content != "par" {
		t.Errorf("partial content = %q, want %q", partial.Content, "par")
	}
}

func TestChatResponse_TotalTokensFallsBackToSum(t *testing.T) {
	response := &ChatResponse{Usage: &Usage{PromptTokens: 7, CompletionTokens: 4}}
	if got := response.TotalTokens(); got != 11 {
		t.Errorf("TotalTokens = %d, want 11", got)
	}

	var empty *ChatResponse
	if empty.TotalTokens() != 0 {
		t.Error("nil response must report zero tokens")
	}
}
