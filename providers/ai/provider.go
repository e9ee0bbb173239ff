package ai

import (
	"context"
	"net/http"
	"strings"
)

// ProviderID identifies one member of the closed set of supported vendors.
type ProviderID string

const (
	OpenAI      ProviderID = "openai"
	Anthropic   ProviderID = "anthropic"
	Google      ProviderID = "google"
	HuggingFace ProviderID = "huggingface"
)

// AllProviders lists every supported provider in declaration order.
var AllProviders = []ProviderID{OpenAI, Anthropic, Google, HuggingFace}

// ParseProviderID maps a loose provider name to its [ProviderID]. "gemini" is
// accepted as an alias for [Google]. The second return value is false for
// anything outside the closed set.
func ParseProviderID(name string) (ProviderID, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return OpenAI, true
	case "anthropic":
		return Anthropic, true
	case "google", "gemini":
		return Google, true
	case "huggingface", "hf":
		return HuggingFace, true
	default:
		return "", false
	}
}

// String implements fmt.Stringer.
func (id ProviderID) String() string {
	return string(id)
}

// StreamProvider is an optional interface that providers can implement to support
// streaming (SSE-based) responses. Callers detect streaming support via type
// assertion: provider.(StreamProvider). If the provider does not implement this
// interface, callers should fall back to the synchronous SendMessage method.
type StreamProvider interface {
	Provider
	// StreamMessage sends a chat request and returns a ChatStream that yields
	// incremental deltas as they arrive from the API. Pre-stream errors
	// (auth, bad request, network) are returned as a normal error. Mid-stream
	// errors are yielded through the iterator.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}

// Provider is the narrow completion interface every vendor adapter satisfies.
type Provider interface {
	// ID returns the vendor this adapter talks to.
	ID() ProviderID

	// Configured reports whether a non-blank credential was supplied. The
	// credential itself is never validated here.
	Configured() bool

	// SendMessage sends a chat request to the provider and returns the
	// completed response. Returns an error if the provider call fails,
	// the context is cancelled, or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response represents a natural,
	// complete answer according to the vendor's finish-reason semantics.
	IsStopMessage(message *ChatResponse) bool

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}

// HasCredential reports whether key is usable as a credential. Blank strings
// count as absent.
func HasCredential(key string) bool {
	return strings.TrimSpace(key) != ""
}
