package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leofalp/agentgraph/providers/ai"
)

func TestSendMessage_UsesRouterFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer hf-key" {
			t.Errorf("path = %s, auth = %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != DefaultModel {
			t.Errorf("model = %v", body["model"])
		}
		if _, ok := body["response_format"]; ok {
			t.Error("response_format must not be forwarded")
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("hf-key").WithBaseURL(server.URL)

	request := ai.UserPrompt("", "", "hi")
	request.JSONMode = true

	response, err := provider.SendMessage(context.Background(), request)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if response.Content != "ok" || response.Model != DefaultModel || provider.ID() != ai.HuggingFace {
		t.Errorf("response = %+v", response)
	}
}
