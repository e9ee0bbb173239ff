// Package huggingface implements [ai.Provider] for the HuggingFace inference
// router, which speaks the OpenAI Chat Completions format.
package huggingface

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/providers/ai/openai"
)

const (
	defaultBaseURL          = "https://router.huggingface.co/v1"
	chatCompletionsEndpoint = "/chat/completions"

	// DefaultModel is used when a request carries no model.
	DefaultModel = "meta-llama/Llama-3.2-3B-Instruct"
)

// HuggingFaceProvider implements [ai.Provider] for the inference router.
type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a [HuggingFaceProvider] initialized from HUGGINGFACE_API_KEY
// (or HF_TOKEN) and HUGGINGFACE_API_BASE_URL.
func New() *HuggingFaceProvider {
	apiKey := os.Getenv("HUGGINGFACE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("HF_TOKEN")
	}
	baseURL := os.Getenv("HUGGINGFACE_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &HuggingFaceProvider{apiKey: apiKey, baseURL: baseURL, client: &http.Client{}}
}

func (p *HuggingFaceProvider) ID() ai.ProviderID { return ai.HuggingFace }

func (p *HuggingFaceProvider) Configured() bool { return ai.HasCredential(p.apiKey) }

func (p *HuggingFaceProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *HuggingFaceProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

func (p *HuggingFaceProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

func (p *HuggingFaceProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return message != nil && (message.FinishReason == "stop" || message.FinishReason == "eos_token")
}

// SendMessage posts a chat completion to the router. JSON mode is not
// forwarded because most hosted models reject response_format.
func (p *HuggingFaceProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if !p.Configured() {
		return nil, errors.New("HUGGINGFACE_API_KEY is not set")
	}
	if request.Model == "" {
		request.Model = DefaultModel
	}
	request.JSONMode = false

	return openai.SendChatCompletion(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, request)
}
