// Package overview accumulates token usage and cost across the completions
// made during one agent execution. An [Overview] travels in the context so
// the orchestrator can record into it without the runtime threading it
// through every call.
package overview
