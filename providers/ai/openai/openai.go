package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/leofalp/agentgraph/internal/utils"
	"github.com/leofalp/agentgraph/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"

	// DefaultModel is used when a request carries no model.
	DefaultModel = "gpt-4o-mini"
)

// OpenAIProvider implements [ai.Provider] and [ai.StreamProvider] for the
// Chat Completions API.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an [OpenAIProvider] initialized from OPENAI_API_KEY and
// OPENAI_API_BASE_URL.
func New() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (p *OpenAIProvider) ID() ai.ProviderID { return ai.OpenAI }

func (p *OpenAIProvider) Configured() bool { return ai.HasCredential(p.apiKey) }

// WithAPIKey sets the API key used for authenticating requests.
func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the API base URL.
func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the HTTP client used for API calls.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// IsStopMessage reports a natural end of generation.
func (p *OpenAIProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return message != nil && message.FinishReason == "stop"
}

// SendMessage posts a synchronous chat completion.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if !p.Configured() {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return SendChatCompletion(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, withDefaultModel(request))
}

// StreamMessage posts a streaming chat completion and yields deltas as SSE
// events arrive.
func (p *OpenAIProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	if !p.Configured() {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	body := ToChatCompletion(withDefaultModel(request))
	body.Stream = true
	body.StreamOptions = &streamOptions{IncludeUsage: true}

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, body)
	if err != nil {
		return nil, err
	}

	scanner := utils.NewSSEScanner(httpResponse.Body)

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		finishReason := ""
		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			payload, err := scanner.Next()
			if errors.Is(err, io.EOF) {
				yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason}, nil)
				return
			}
			if err != nil {
				yield(ai.StreamEvent{}, err)
				return
			}

			var chunk ChatCompletionResponse
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("decoding stream chunk: %w", err))
				return
			}

			if chunk.Usage != nil {
				event := ai.StreamEvent{Type: ai.StreamEventUsage, Usage: &ai.Usage{
					PromptTokens:     chunk.Usage.PromptTokens,
					CompletionTokens: chunk.Usage.CompletionTokens,
					TotalTokens:      chunk.Usage.TotalTokens,
				}}
				if !yield(event, nil) {
					return
				}
			}

			for _, c := range chunk.Choices {
				if c.FinishReason != "" {
					finishReason = c.FinishReason
				}
				if c.Delta.Content == "" {
					continue
				}
				if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: c.Delta.Content}, nil) {
					return
				}
			}
		}
	}), nil
}

// SendChatCompletion posts request to url in the Chat Completions format.
// Exported for OpenAI-compatible vendors.
func SendChatCompletion(ctx context.Context, client *http.Client, url, apiKey string, request ai.ChatRequest) (*ai.ChatResponse, error) {
	httpResponse, response, err := utils.DoPostSync[ChatCompletionResponse](ctx, client, url, apiKey, ToChatCompletion(request))
	if err != nil {
		return nil, err
	}
	if response == nil || len(response.Choices) == 0 {
		return nil, fmt.Errorf("empty response from %s: %s", url, httpResponse.Status)
	}

	result := FromChatCompletion(*response)
	if result.Model == "" {
		result.Model = request.Model
	}
	return result, nil
}

func withDefaultModel(request ai.ChatRequest) ai.ChatRequest {
	if request.Model == "" {
		request.Model = DefaultModel
	}
	return request
}
