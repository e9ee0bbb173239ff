// Package agent holds the data model of an agent graph: the agent itself, its
// typed nodes and the edges between them.
//
// Node configuration arrives as a loose map (the shape produced by the visual
// builder). The typed payloads [InputData], [AIData], [LogicData], [APIData]
// and [OutputData] are decoded from it on demand with [Node.Payload], which
// switches exhaustively over the closed [NodeType] set.
//
// Agents can be read from JSON or YAML files with [Load]. [Agent.TopologicalOrder]
// sorts nodes along their edges and reports cycles with [ErrCycle].
package agent
