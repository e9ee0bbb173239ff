// Package testengine runs the pre-flight test of an agent: structural
// validation, strategy detection, test-data synthesis, a dry-run simulation
// and the category checks, followed by improvement recommendations.
//
// Executions are tracked in an in-process registry while they run and, when
// a [store.Store] is configured, persisted once finished.
package testengine
