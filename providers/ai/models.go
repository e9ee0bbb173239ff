package ai

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Provider-specific model identifier
	Messages         []Message         `json:"messages"`                    // Conversation messages, system prompt excluded
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional sampling configuration
	JSONMode         bool              `json:"json_mode,omitempty"`         // Ask the vendor for a JSON object when supported
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

// GenerationConfig holds the sampling parameters of a request.
type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`  // Optional max tokens for the response
	Temperature float32 `json:"temperature,omitempty"` // Sampling temperature [0..2]
}

// UserPrompt builds the common single-turn request.
func UserPrompt(model, systemPrompt, prompt string) ChatRequest {
	return ChatRequest{
		Model:        model,
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: RoleUser, Content: prompt}},
	}
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage reports token consumption for one response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Id           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// TotalTokens returns the token count reported by the vendor, or zero.
func (r *ChatResponse) TotalTokens() int {
	if r == nil || r.Usage == nil {
		return 0
	}
	if r.Usage.TotalTokens > 0 {
		return r.Usage.TotalTokens
	}
	return r.Usage.PromptTokens + r.Usage.CompletionTokens
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
)
