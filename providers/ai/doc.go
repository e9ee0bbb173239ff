// Package ai defines the provider-adapter boundary used by the orchestrator.
// Every vendor adapter (OpenAI, Anthropic, Google Gemini, HuggingFace) maps
// its own wire format onto [ChatRequest] and [ChatResponse], keeping the
// graph engine decoupled from vendor SDK details.
//
// The two central interfaces are [Provider] for synchronous completions and
// the optional [StreamProvider] for SSE-based streaming. Callers detect
// streaming support with a type assertion and degrade to [Provider.SendMessage]
// when it is absent.
package ai
