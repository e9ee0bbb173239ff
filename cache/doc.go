// Package cache provides Redis-backed orchestrator middleware: a response
// cache keyed by provider, model and request content, and a fixed-window
// per-user rate limiter.
//
// Both fail open: a Redis outage is logged and the call proceeds uncached
// and unlimited.
package cache
