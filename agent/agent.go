package agent

import (
	"encoding/json"
	"fmt"
)

// NodeType is the closed set of node kinds an agent graph can contain.
type NodeType string

const (
	NodeInput  NodeType = "input"
	NodeAI     NodeType = "ai"
	NodeLogic  NodeType = "logic"
	NodeAPI    NodeType = "api"
	NodeOutput NodeType = "output"

	// NodeCustom is emitted by the builder for styled nodes; the real kind
	// lives in data.nodeType.
	NodeCustom NodeType = "customNode"
)

// Valid reports whether t is one of the five executable node kinds.
func (t NodeType) Valid() bool {
	switch t {
	case NodeInput, NodeAI, NodeLogic, NodeAPI, NodeOutput:
		return true
	}
	return false
}

// Complexity is the difficulty bucket derived from the graph shape.
type Complexity string

const (
	Beginner     Complexity = "beginner"
	Intermediate Complexity = "intermediate"
	Advanced     Complexity = "advanced"
)

// Agent is a user-authored directed graph of typed nodes.
type Agent struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Status       string   `json:"status,omitempty" yaml:"status,omitempty"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Nodes        []Node   `json:"nodes" yaml:"nodes"`
	Edges        []Edge   `json:"edges" yaml:"edges"`
	InputSchema  *Schema  `json:"inputSchema,omitempty" yaml:"inputSchema,omitempty"`
	OutputSchema *Schema  `json:"outputSchema,omitempty" yaml:"outputSchema,omitempty"`
}

// Position is the canvas location of a node. It has no effect on execution.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a single unit of work. Data holds the type-specific configuration.
type Node struct {
	ID       string         `json:"id" yaml:"id"`
	Type     NodeType       `json:"type" yaml:"type"`
	Position Position       `json:"position" yaml:"position"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// Edge connects the output of Source to the input of Target.
type Edge struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Kind resolves the effective node type, looking through custom nodes.
func (n Node) Kind() NodeType {
	if n.Type != NodeCustom {
		return n.Type
	}
	if kind, ok := n.Data["nodeType"].(string); ok {
		return NodeType(kind)
	}
	return NodeCustom
}

// Label returns data.label, falling back to the node id.
func (n Node) Label() string {
	if label, ok := n.Data["label"].(string); ok && label != "" {
		return label
	}
	return n.ID
}

// Node returns the first node with the given id.
func (a *Agent) Node(id string) (*Node, bool) {
	for i := range a.Nodes {
		if a.Nodes[i].ID == id {
			return &a.Nodes[i], true
		}
	}
	return nil, false
}

// NodesOfType returns the nodes whose effective kind is t, in list order.
func (a *Agent) NodesOfType(t NodeType) []Node {
	var out []Node
	for _, node := range a.Nodes {
		if node.Kind() == t {
			out = append(out, node)
		}
	}
	return out
}

// CountByType tallies nodes per effective kind.
func (a *Agent) CountByType() map[NodeType]int {
	counts := make(map[NodeType]int, 5)
	for _, node := range a.Nodes {
		counts[node.Kind()]++
	}
	return counts
}

// Outgoing returns the edges leaving id.
func (a *Agent) Outgoing(id string) []Edge {
	var out []Edge
	for _, edge := range a.Edges {
		if edge.Source == id {
			out = append(out, edge)
		}
	}
	return out
}

// Predecessors returns the ids of nodes with an edge into id, in edge order.
func (a *Agent) Predecessors(id string) []string {
	var out []string
	for _, edge := range a.Edges {
		if edge.Target == id {
			out = append(out, edge.Source)
		}
	}
	return out
}

// Clone returns a deep copy, used as the frozen snapshot handed to execution.
func (a *Agent) Clone() (*Agent, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("snapshot agent %s: %w", a.ID, err)
	}
	var out Agent
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("snapshot agent %s: %w", a.ID, err)
	}
	return &out, nil
}
