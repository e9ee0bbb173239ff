package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/core/client"
	"github.com/leofalp/agentgraph/internal/utils"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/providers/ai/mock"
)

// ========== Mock helpers ==========

// mockSendSequence is a client.SendFunc with a configurable return sequence.
// Each call pops the next element.
type mockSendSequence struct {
	responses []*ai.ChatResponse
	errors    []error
	callCount int
}

func (m *mockSendSequence) next(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	index := m.callCount
	m.callCount++

	if index < len(m.errors) && m.errors[index] != nil {
		return nil, m.errors[index]
	}
	if index < len(m.responses) {
		return m.responses[index], nil
	}
	return &ai.ChatResponse{Content: "default", FinishReason: "stop"}, nil
}

func fastRetry(maxRetries int) apperr.RetryOptions {
	return apperr.RetryOptions{MaxRetries: maxRetries, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

// ========== NewRetryMiddleware tests ==========

// TestRetryMiddleware_SuccessOnFirstTry verifies that when the provider succeeds
// immediately, no retry is performed.
func TestRetryMiddleware_SuccessOnFirstTry(t *testing.T) {
	seq := &mockSendSequence{responses: []*ai.ChatResponse{{Content: "ok", FinishReason: "stop"}}}

	chain := NewRetryMiddleware(fastRetry(3)).Send(seq.next)

	resp, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Content != "ok" || seq.callCount != 1 {
		t.Errorf("content = %q, calls = %d", resp.Content, seq.callCount)
	}
}

// TestRetryMiddleware_RetriesTransientErrors verifies retryable AppErrors are
// retried until success.
func TestRetryMiddleware_RetriesTransientErrors(t *testing.T) {
	transient := apperr.AIProvider("openai", errors.New("503"))
	seq := &mockSendSequence{errors: []error{transient, transient}}

	chain := NewRetryMiddleware(fastRetry(3)).Send(seq.next)

	if _, err := chain(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if seq.callCount != 3 {
		t.Errorf("callCount = %d, want 3", seq.callCount)
	}
}

// TestRetryMiddleware_TerminalErrorNotRetried verifies non-retryable errors
// surface after a single call.
func TestRetryMiddleware_TerminalErrorNotRetried(t *testing.T) {
	terminal := apperr.AIProvider("openai", errors.New("401"), apperr.WithRetryable(false))
	seq := &mockSendSequence{errors: []error{terminal}}

	_, err := NewRetryMiddleware(fastRetry(3)).Send(seq.next)(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, terminal) || seq.callCount != 1 {
		t.Fatalf("err = %v, calls = %d", err, seq.callCount)
	}
}

func TestRetryMiddleware_Exhausted(t *testing.T) {
	transient := apperr.New(apperr.KindNetwork, "reset")
	seq := &mockSendSequence{errors: []error{transient, transient, transient}}

	_, err := NewRetryMiddleware(fastRetry(2)).Send(seq.next)(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, apperr.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if seq.callCount != 3 {
		t.Errorf("callCount = %d, want 3", seq.callCount)
	}
}

// ========== NewErrorMiddleware tests ==========

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      apperr.Kind
		retryable bool
	}{
		{"rate limited", &utils.HTTPError{StatusCode: http.StatusTooManyRequests}, apperr.KindAIQuotaExceeded, true},
		{"bad key", &utils.HTTPError{StatusCode: http.StatusUnauthorized}, apperr.KindAIProvider, false},
		{"bad request", &utils.HTTPError{StatusCode: http.StatusBadRequest}, apperr.KindAIProvider, false},
		{"overloaded", &utils.HTTPError{StatusCode: 529}, apperr.KindAIProvider, true},
		{"deadline", fmt.Errorf("sending: %w", context.DeadlineExceeded), apperr.KindAITimeout, true},
		{"refused", errors.New("dial tcp: connection refused"), apperr.KindAIProvider, true},
		{"missing key", errors.New("OPENAI_API_KEY is not set"), apperr.KindAIProvider, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyProviderError(ai.OpenAI, "gpt-4o-mini", tt.err)
			if got.Kind != tt.kind || got.Retryable != tt.retryable {
				t.Errorf("got (%s, %v), want (%s, %v)", got.Kind, got.Retryable, tt.kind, tt.retryable)
			}
			if got.Context["provider"] != "openai" {
				t.Errorf("provider context = %v", got.Context["provider"])
			}
		})
	}
}

func TestErrorMiddleware_WrapsSendErrors(t *testing.T) {
	pipeline, err := client.New(
		mock.New(ai.Google).FailWith(&utils.HTTPError{StatusCode: 503, Body: "unavailable"}, 1),
		NewErrorMiddleware(ai.Google),
	)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	_, err = pipeline.Send(context.Background(), ai.ChatRequest{Model: "gemini-1.5-flash"})
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindAIProvider {
		t.Fatalf("expected AI_PROVIDER_ERROR, got %v", err)
	}
	if appErr.Context["status"] != 503 {
		t.Errorf("status context = %v", appErr.Context["status"])
	}
}

// ========== NewTimeoutMiddleware tests ==========

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var hadDeadline bool
	next := func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		_, hadDeadline = ctx.Deadline()
		return &ai.ChatResponse{}, nil
	}

	if _, err := NewTimeoutMiddleware(time.Second).Send(next)(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hadDeadline {
		t.Error("expected a deadline on the context")
	}
}

func TestTimeoutMiddleware_Expires(t *testing.T) {
	next := func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := NewTimeoutMiddleware(5*time.Millisecond).Send(next)(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestTimeoutMiddleware_DisabledPassesThrough(t *testing.T) {
	config := NewTimeoutMiddleware(0)
	if config.Stream != nil {
		t.Error("disabled timeout must not wrap streams")
	}
	var hadDeadline bool
	next := func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		_, hadDeadline = ctx.Deadline()
		return &ai.ChatResponse{}, nil
	}
	_, _ = config.Send(next)(context.Background(), ai.ChatRequest{})
	if hadDeadline {
		t.Error("disabled timeout must not add a deadline")
	}
}

// ========== NewLoggingMiddleware tests ==========

func TestLoggingMiddleware_LogsCompletion(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

	seq := &mockSendSequence{responses: []*ai.ChatResponse{{
		Model: "claude-3-5-haiku-20241022", Content: "secret answer", FinishReason: "end_turn",
		Usage: &ai.Usage{PromptTokens: 4, CompletionTokens: 6, TotalTokens: 10},
	}}}

	chain := NewLoggingMiddleware(logger, ai.Anthropic, LogLevelStandard).Send(seq.next)
	if _, err := chain(context.Background(), ai.UserPrompt("claude-3-5-haiku-20241022", "", "hi")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buffer.String()
	for _, want := range []string{"llm send completed", "provider=anthropic", "total_tokens=10", "finish_reason=end_turn"} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "secret answer") {
		t.Error("standard level must not log response content")
	}
}

func TestLoggingMiddleware_LogsFailure(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))

	seq := &mockSendSequence{errors: []error{errors.New("upstream down")}}
	_, err := NewLoggingMiddleware(logger, ai.OpenAI, LogLevelMinimal).Send(seq.next)(context.Background(), ai.ChatRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buffer.String(), "llm send failed") {
		t.Errorf("missing failure entry:\n%s", buffer.String())
	}
}
