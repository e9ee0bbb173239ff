// Package runtime executes agent graphs for real.
//
// Nodes run in topological order. Each node receives the accumulated
// variables of the run (the caller's input merged with every upstream
// node's result) and its own result is merged back in:
//
//   - input nodes check the variables against their schema;
//   - ai nodes render their prompt and call the orchestrator with retries;
//   - logic nodes evaluate Lua conditions, validations and transformations
//     in a sandboxed interpreter;
//   - api nodes perform an HTTP request, converting HTML bodies to markdown;
//   - output nodes wrap the variables into the final result.
//
// Any node failure stops the run and is reported as a NODE_EXECUTION_ERROR
// carrying the node's id and type.
package runtime
