// Package anthropic implements [ai.Provider] for Anthropic's Messages API.
// Authentication uses the x-api-key header rather than a Bearer token, and
// every request pins the anthropic-version header.
package anthropic
