// Package orchestrator dispatches completions across several AI providers.
//
// Providers are tried strictly one at a time in a configurable fallback
// order, with the caller's preferred provider first. Providers without a
// credential are skipped. Each provider call runs through a middleware
// pipeline (logging, retry with backoff, per-attempt timeout and error
// classification) built on [client.Pipeline]. Every request carries the
// system preamble of the active [OutputContract]; by default that is
// [ForcedJSON], which makes every vendor answer with the same JSON envelope.
//
// The returned [Response] always names the provider that actually answered.
// When every candidate fails, a single AI_PROVIDER_ERROR lists the last
// underlying error and every attempted provider.
package orchestrator
