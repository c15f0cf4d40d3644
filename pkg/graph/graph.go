// Package graph provides DAG operations for the execution engine: loading a
// persisted structure file, computing the bidirectional reachability closure
// from a start vertex, and topologically sorting the resulting subgraph.
package graph

import (
	"fmt"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

// Graph represents a loaded workflow graph. order preserves the exact
// sequence nodes appeared in the structure file, since the topological sort
// must break ties by that order rather than by node ID.
type Graph struct {
	nodes map[string]types.Node
	order []string
	edges []types.Edge
}

// New builds a Graph from nodes and edges, preserving nodes' slice order as
// the insertion order used for deterministic tie-breaking.
func New(nodes []types.Node, edges []types.Edge) *Graph {
	g := &Graph{
		nodes: make(map[string]types.Node, len(nodes)),
		order: make([]string, 0, len(nodes)),
		edges: edges,
	}
	for _, n := range nodes {
		if _, exists := g.nodes[n.ID]; !exists {
			g.order = append(g.order, n.ID)
		}
		g.nodes[n.ID] = n
	}
	return g
}

// GetNode retrieves a node by ID.
func (g *Graph) GetNode(nodeID string) *types.Node {
	if n, ok := g.nodes[nodeID]; ok {
		return &n
	}
	return nil
}

// NodeIDs returns every node ID in structure-file order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// GetNodeInputEdges returns all edges targeting nodeID.
func (g *Graph) GetNodeInputEdges(nodeID string) []types.Edge {
	var edges []types.Edge
	for _, e := range g.edges {
		if e.Target == nodeID {
			edges = append(edges, e)
		}
	}
	return edges
}

// GetNodeOutputEdges returns all edges sourced from nodeID.
func (g *Graph) GetNodeOutputEdges(nodeID string) []types.Edge {
	var edges []types.Edge
	for _, e := range g.edges {
		if e.Source == nodeID {
			edges = append(edges, e)
		}
	}
	return edges
}

// Reachable computes the bidirectional closure from startID: every vertex
// reachable by following edges forward (descendants) or backward
// (ancestors), including startID itself. This is the subgraph the Scheduler
// is permitted to execute.
func (g *Graph) Reachable(startID string) (map[string]bool, error) {
	if _, ok := g.nodes[startID]; !ok {
		return nil, fmt.Errorf("graph: start node %q not found", startID)
	}

	forward := make(map[string][]string, len(g.nodes))
	backward := make(map[string][]string, len(g.nodes))
	for _, e := range g.edges {
		forward[e.Source] = append(forward[e.Source], e.Target)
		backward[e.Target] = append(backward[e.Target], e.Source)
	}

	visited := map[string]bool{startID: true}
	queue := []string{startID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range forward[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
		for _, prev := range backward[cur] {
			if !visited[prev] {
				visited[prev] = true
				queue = append(queue, prev)
			}
		}
	}
	return visited, nil
}

// Subgraph restricts the graph to the given vertex set, keeping only edges
// whose endpoints are both included. Insertion order of the surviving nodes
// is preserved from the parent graph.
func (g *Graph) Subgraph(keep map[string]bool) *Graph {
	nodes := make([]types.Node, 0, len(keep))
	for _, id := range g.order {
		if keep[id] {
			nodes = append(nodes, g.nodes[id])
		}
	}
	edges := make([]types.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if keep[e.Source] && keep[e.Target] {
			edges = append(edges, e)
		}
	}
	return New(nodes, edges)
}

// TopologicalSort orders every node in the graph using Kahn's algorithm.
// Ties among simultaneously-ready nodes are broken by the structure file's
// original insertion order, not by node ID, so re-ordering a persisted
// graph's node array changes the execution order even when the edge set is
// unchanged.
func (g *Graph) TopologicalSort() ([]string, error) {
	numNodes := len(g.order)
	if numNodes == 0 {
		return []string{}, nil
	}

	inDegree := make(map[string]int, numNodes)
	adjacency := make(map[string][]string, numNodes)
	position := make(map[string]int, numNodes)
	for i, id := range g.order {
		inDegree[id] = 0
		position[id] = i
	}
	for _, e := range g.edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		inDegree[e.Target]++
	}

	ready := make([]string, 0, numNodes)
	for _, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	queue := make([]string, numNodes)
	queueStart, queueEnd := 0, len(ready)
	copy(queue, ready)

	order := make([]string, 0, numNodes)
	for queueStart < queueEnd {
		current := queue[queueStart]
		queueStart++
		order = append(order, current)

		var newlyReady []string
		for _, neighbor := range adjacency[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				newlyReady = append(newlyReady, neighbor)
			}
		}
		insertionSortByPosition(newlyReady, position)
		for _, id := range newlyReady {
			queue[queueEnd] = id
			queueEnd++
		}
	}

	if len(order) != numNodes {
		return nil, fmt.Errorf("graph: contains a cycle")
	}
	return order, nil
}

// insertionSortByPosition sorts ids by their structure-file position. Used
// instead of sort.Slice because the sets being sorted here are always small
// (nodes becoming ready at the same level of a single dispatch step).
func insertionSortByPosition(ids []string, position map[string]int) {
	for i := 1; i < len(ids); i++ {
		key := ids[i]
		keyPos := position[key]
		j := i - 1
		for j >= 0 && position[ids[j]] > keyPos {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = key
	}
}

// DetectCycles reports whether the graph contains a cycle.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}

// GetTerminalNodes returns node IDs with no outgoing edges.
func (g *Graph) GetTerminalNodes() []string {
	terminal := make(map[string]bool, len(g.nodes))
	for id := range g.nodes {
		terminal[id] = true
	}
	for _, e := range g.edges {
		terminal[e.Source] = false
	}
	result := make([]string, 0, len(terminal))
	for _, id := range g.order {
		if terminal[id] {
			result = append(result, id)
		}
	}
	return result
}
