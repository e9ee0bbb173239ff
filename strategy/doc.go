// Package strategy derives a test strategy from the shape of an agent graph
// and selects the category validator that knows how to exercise it.
//
// Strategies are pure functions of the agent value and are recomputed on
// every call.
package strategy
