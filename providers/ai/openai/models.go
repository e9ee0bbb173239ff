package openai

import "github.com/leofalp/agentgraph/providers/ai"

// ChatCompletionRequest is the Chat Completions request body.
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	StreamOptions  *streamOptions  `json:"stream_options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatCompletionResponse is the Chat Completions response body.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage,omitempty"`
}

type choice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	Delta        chatMessage `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToChatCompletion converts a generic request into the wire format.
func ToChatCompletion(request ai.ChatRequest) ChatCompletionRequest {
	out := ChatCompletionRequest{Model: request.Model}

	if request.SystemPrompt != "" {
		out.Messages = append(out.Messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, message := range request.Messages {
		out.Messages = append(out.Messages, chatMessage{Role: string(message.Role), Content: message.Content})
	}

	if config := request.GenerationConfig; config != nil {
		out.MaxTokens = config.MaxTokens
		if config.Temperature != 0 {
			temperature := config.Temperature
			out.Temperature = &temperature
		}
	}

	if request.JSONMode {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	return out
}

// FromChatCompletion converts the wire response into the generic shape.
func FromChatCompletion(response ChatCompletionResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{Id: response.ID, Model: response.Model}

	if len(response.Choices) > 0 {
		result.Content = response.Choices[0].Message.Content
		result.FinishReason = response.Choices[0].FinishReason
	}

	if response.Usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}

	return result
}
