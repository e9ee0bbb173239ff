package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leofalp/agentgraph/providers/ai"
)

// TestSendMessage_Success verifies headers, system hoisting and usage mapping.
func TestSendMessage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("headers = %v", r.Header)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("Anthropic must not receive a Bearer token")
		}

		var body messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.System != "contract" || len(body.Messages) != 1 || body.MaxTokens != defaultMaxTokens {
			t.Errorf("body = %+v", body)
		}

		fmt.Fprint(w, `{"id":"m1","model":"claude-3-5-haiku-20241022","content":[{"type":"text","text":"{\"a\":1}"}],"stop_reason":"end_turn","usage":{"input_tokens":7,"output_tokens":3}}`)
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("test-key").WithBaseURL(server.URL)

	response, err := provider.SendMessage(context.Background(), ai.UserPrompt("", "contract", "hi"))
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if response.Content != `{"a":1}` || response.TotalTokens() != 10 || !provider.IsStopMessage(response) {
		t.Errorf("response = %+v", response)
	}
}

func TestSendMessage_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		fmt.Fprint(w, `{"type":"error","error":{"type":"overloaded_error"}}`)
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("k").WithBaseURL(server.URL)

	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{}); err == nil {
		t.Fatal("expected error on 529")
	}
}

func TestToMessagesRequest_SystemMessagesMerged(t *testing.T) {
	request := ai.ChatRequest{
		SystemPrompt: "first",
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "second"},
			{Role: ai.RoleUser, Content: "q"},
		},
		GenerationConfig: &ai.GenerationConfig{MaxTokens: 50},
	}

	out := toMessagesRequest(request)
	if out.System != "first\n\nsecond" || len(out.Messages) != 1 || out.MaxTokens != 50 || out.Model != DefaultModel {
		t.Errorf("out = %+v", out)
	}
}
