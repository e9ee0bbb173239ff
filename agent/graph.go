package agent

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the edges form a cycle.
var ErrCycle = errors.New("cycle detected in graph")

// TopologicalOrder sorts node ids with Kahn's algorithm so every node comes
// after all of its predecessors. Ties are broken by position in Nodes.
// Edges pointing at unknown ids and duplicate node ids are ignored here; the
// validator reports them.
func (a *Agent) TopologicalOrder() ([]string, error) {
	levels, err := a.TopologicalLevels()
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(a.Nodes))
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// TopologicalLevels groups node ids by depth; level 0 holds the roots.
func (a *Agent) TopologicalLevels() ([][]string, error) {
	position := make(map[string]int, len(a.Nodes))
	for index, node := range a.Nodes {
		if _, seen := position[node.ID]; !seen {
			position[node.ID] = index
		}
	}

	inDegree := make(map[string]int, len(position))
	adjacency := make(map[string][]string, len(position))
	for id := range position {
		inDegree[id] = 0
	}
	for _, edge := range a.Edges {
		_, sourceKnown := position[edge.Source]
		_, targetKnown := position[edge.Target]
		if !sourceKnown || !targetKnown {
			continue
		}
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	byPosition := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return position[ids[i]] < position[ids[j]] })
	}

	current := make([]string, 0)
	for id, degree := range inDegree {
		if degree == 0 {
			current = append(current, id)
		}
	}
	byPosition(current)

	var levels [][]string
	processed := 0
	for len(current) > 0 {
		levels = append(levels, current)
		processed += len(current)

		next := make([]string, 0)
		for _, id := range current {
			for _, neighbor := range adjacency[id] {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					next = append(next, neighbor)
				}
			}
		}
		byPosition(next)
		current = next
	}

	if processed != len(inDegree) {
		cycle := make([]string, 0)
		for id, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, id)
			}
		}
		sort.Strings(cycle)
		return nil, fmt.Errorf("%w involving nodes: %v", ErrCycle, cycle)
	}

	return levels, nil
}

// Orphans returns the ids of nodes touched by no edge, in list order.
func (a *Agent) Orphans() []string {
	connected := make(map[string]bool, len(a.Nodes))
	for _, edge := range a.Edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
	}

	var out []string
	for _, node := range a.Nodes {
		if !connected[node.ID] {
			out = append(out, node.ID)
		}
	}
	return out
}
