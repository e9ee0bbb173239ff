package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/agentgraph/internal/utils"
	"github.com/leofalp/agentgraph/providers/ai"
)

const (
	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "/messages"

	// anthropicVersion is the required anthropic-version header value.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens is sent when the caller sets none; the API requires it.
	defaultMaxTokens = 4096

	// DefaultModel is used when a request carries no model.
	DefaultModel = "claude-3-5-haiku-20241022"
)

// AnthropicProvider implements [ai.Provider] for the Messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an [AnthropicProvider] initialized from ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL.
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (p *AnthropicProvider) ID() ai.ProviderID { return ai.Anthropic }

func (p *AnthropicProvider) Configured() bool { return ai.HasCredential(p.apiKey) }

func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// IsStopMessage reports a natural end of generation.
func (p *AnthropicProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return message != nil && (message.FinishReason == "end_turn" || message.FinishReason == "stop_sequence")
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendMessage sends a synchronous request to the Messages API.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if !p.Configured() {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}

	body := toMessagesRequest(request)

	// Empty apiKey: Anthropic authenticates via x-api-key, not Bearer.
	httpResponse, response, err := utils.DoPostSync[messagesResponse](
		ctx,
		p.client,
		p.baseURL+messagesEndpoint,
		"",
		body,
		utils.HeaderOption{Key: "x-api-key", Value: p.apiKey},
		utils.HeaderOption{Key: "anthropic-version", Value: anthropicVersion},
	)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, fmt.Errorf("empty response from Anthropic API: %s", httpResponse.Status)
	}

	result := fromMessagesResponse(*response)
	if result.Model == "" {
		result.Model = body.Model
	}
	return result, nil
}

func toMessagesRequest(request ai.ChatRequest) messagesRequest {
	out := messagesRequest{
		Model:     request.Model,
		MaxTokens: defaultMaxTokens,
		System:    request.SystemPrompt,
	}
	if out.Model == "" {
		out.Model = DefaultModel
	}

	if config := request.GenerationConfig; config != nil {
		if config.MaxTokens > 0 {
			out.MaxTokens = config.MaxTokens
		}
		if config.Temperature != 0 {
			temperature := config.Temperature
			out.Temperature = &temperature
		}
	}

	for _, m := range request.Messages {
		// The Messages API carries system instructions out of band.
		if m.Role == ai.RoleSystem {
			if out.System == "" {
				out.System = m.Content
			} else {
				out.System += "\n\n" + m.Content
			}
			continue
		}
		out.Messages = append(out.Messages, message{Role: string(m.Role), Content: m.Content})
	}

	return out
}

func fromMessagesResponse(response messagesResponse) *ai.ChatResponse {
	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &ai.ChatResponse{
		Id:           response.ID,
		Model:        response.Model,
		Content:      text.String(),
		FinishReason: response.StopReason,
		Usage: &ai.Usage{
			PromptTokens:     response.Usage.InputTokens,
			CompletionTokens: response.Usage.OutputTokens,
			TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		},
	}
}
