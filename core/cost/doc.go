// Package cost estimates the monetary cost of completions from a static
// per-1K-token price table keyed by provider and model.
package cost
