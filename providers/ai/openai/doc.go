// Package openai implements [ai.Provider] and [ai.StreamProvider] for the
// OpenAI Chat Completions API. The same wire format is reused by the
// huggingface package, whose router is OpenAI-compatible.
package openai
