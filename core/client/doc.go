// Package client wraps a single [ai.Provider] in a middleware pipeline.
//
// The orchestrator builds one [Pipeline] per configured provider so that
// cross-cutting behavior (error classification, retries, timeouts, logging,
// caching, metrics) is applied uniformly to every vendor without the adapters
// knowing about it.
//
// Middlewares execute outermost-first: the first entry passed to [New] is the
// first to see a request and the last to see its response.
package client
