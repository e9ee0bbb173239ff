package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/leofalp/agentgraph/internal/utils"
	"github.com/leofalp/agentgraph/providers/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when a request carries no model.
	DefaultModel = "gemini-1.5-flash"
)

// GeminiProvider implements [ai.Provider] for the Gemini API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a [GeminiProvider] initialized from GEMINI_API_KEY (or
// GOOGLE_API_KEY) and GEMINI_API_BASE_URL.
func New() *GeminiProvider {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GeminiProvider{apiKey: apiKey, baseURL: baseURL, client: &http.Client{}}
}

func (p *GeminiProvider) ID() ai.ProviderID { return ai.Google }

func (p *GeminiProvider) Configured() bool { return ai.HasCredential(p.apiKey) }

func (p *GeminiProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *GeminiProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// IsStopMessage reports a natural end of generation.
func (p *GeminiProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return message != nil && message.FinishReason == "STOP"
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
	ResponseID   string `json:"responseId"`
}

// SendMessage calls models/{model}:generateContent.
func (p *GeminiProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if !p.Configured() {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	model := request.Model
	if model == "" {
		model = DefaultModel
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, url.PathEscape(model))

	httpResponse, response, err := utils.DoPostSync[generateResponse](
		ctx, p.client, endpoint, "", toGenerateRequest(request),
		utils.HeaderOption{Key: "x-goog-api-key", Value: p.apiKey},
	)
	if err != nil {
		return nil, err
	}
	if response == nil || len(response.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API: %s", httpResponse.Status)
	}

	result := fromGenerateResponse(*response)
	if result.Model == "" {
		result.Model = model
	}
	return result, nil
}

func toGenerateRequest(request ai.ChatRequest) generateRequest {
	out := generateRequest{}

	system := request.SystemPrompt
	for _, m := range request.Messages {
		switch m.Role {
		case ai.RoleSystem:
			system = strings.TrimSpace(system + "\n\n" + m.Content)
		case ai.RoleAssistant:
			out.Contents = append(out.Contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			out.Contents = append(out.Contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}
	if system != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	config := &generationConfig{}
	if gc := request.GenerationConfig; gc != nil {
		config.MaxOutputTokens = gc.MaxTokens
		if gc.Temperature != 0 {
			temperature := gc.Temperature
			config.Temperature = &temperature
		}
	}
	if request.JSONMode {
		config.ResponseMimeType = "application/json"
	}
	if *config != (generationConfig{}) {
		out.GenerationConfig = config
	}

	return out
}

func fromGenerateResponse(response generateResponse) *ai.ChatResponse {
	candidate := response.Candidates[0]

	var text strings.Builder
	for _, p := range candidate.Content.Parts {
		text.WriteString(p.Text)
	}

	return &ai.ChatResponse{
		Id:           response.ResponseID,
		Model:        response.ModelVersion,
		Content:      text.String(),
		FinishReason: candidate.FinishReason,
		Usage: &ai.Usage{
			PromptTokens:     response.UsageMetadata.PromptTokenCount,
			CompletionTokens: response.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      response.UsageMetadata.TotalTokenCount,
		},
	}
}
