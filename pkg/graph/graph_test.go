package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/graph"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

func strPtr(s string) *string { return &s }

func TestTopologicalSort_LinearChain(t *testing.T) {
	nodes := []types.Node{
		{ID: "a", Type: types.NodeKindStart},
		{ID: "b", Type: types.NodeKindCustom},
		{ID: "c", Type: types.NodeKindResult},
	}
	edges := []types.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
	}
	g := graph.New(nodes, edges)
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopologicalSort_TiesBrokenByInsertionOrder(t *testing.T) {
	// b and c both depend only on a; structure file lists c before b.
	nodes := []types.Node{
		{ID: "a", Type: types.NodeKindStart},
		{ID: "c", Type: types.NodeKindCustom},
		{ID: "b", Type: types.NodeKindCustom},
	}
	edges := []types.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "a", Target: "c"},
	}
	g := graph.New(nodes, edges)
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, order)
}

func TestTopologicalSort_CycleRejected(t *testing.T) {
	nodes := []types.Node{
		{ID: "a", Type: types.NodeKindCustom},
		{ID: "b", Type: types.NodeKindCustom},
	}
	edges := []types.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "a"},
	}
	g := graph.New(nodes, edges)
	_, err := g.TopologicalSort()
	assert.Error(t, err)
}

func TestReachable_IncludesAncestorsAndDescendants(t *testing.T) {
	// unrelated -> a -> start -> b, querying from start must include a and b,
	// and unrelated too, since it reaches start through a.
	nodes := []types.Node{
		{ID: "unrelated", Type: types.NodeKindCustom},
		{ID: "a", Type: types.NodeKindCustom},
		{ID: "start", Type: types.NodeKindStart},
		{ID: "b", Type: types.NodeKindResult},
	}
	edges := []types.Edge{
		{ID: "e0", Source: "unrelated", Target: "a"},
		{ID: "e1", Source: "a", Target: "start"},
		{ID: "e2", Source: "start", Target: "b"},
	}
	g := graph.New(nodes, edges)
	reach, err := g.Reachable("start")
	require.NoError(t, err)
	assert.True(t, reach["a"])
	assert.True(t, reach["b"])
	assert.True(t, reach["start"])
	// "unrelated" feeds "a" which feeds "start", so it is an ancestor and
	// IS reachable under the bidirectional closure.
	assert.True(t, reach["unrelated"])
}

func TestReachable_UnknownStart(t *testing.T) {
	g := graph.New(nil, nil)
	_, err := g.Reachable("missing")
	assert.Error(t, err)
}

func TestSubgraph_RestrictsEdgesToKeptNodes(t *testing.T) {
	nodes := []types.Node{
		{ID: "a", Type: types.NodeKindStart},
		{ID: "b", Type: types.NodeKindCustom},
		{ID: "c", Type: types.NodeKindResult},
	}
	edges := []types.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
	}
	g := graph.New(nodes, edges)
	sub := g.Subgraph(map[string]bool{"a": true, "b": true})
	order, err := sub.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Nil(t, sub.GetNode("c"))
}

func TestGetNodeInputOutputEdges(t *testing.T) {
	nodes := []types.Node{
		{ID: "a", Type: types.NodeKindStart},
		{ID: "b", Type: types.NodeKindCustom},
	}
	edges := []types.Edge{
		{ID: "e1", Source: "a", Target: "b", SourceHandle: strPtr("out"), TargetHandle: strPtr("in")},
	}
	g := graph.New(nodes, edges)
	in := g.GetNodeInputEdges("b")
	require.Len(t, in, 1)
	assert.Equal(t, "out", *in[0].SourceHandle)

	out := g.GetNodeOutputEdges("a")
	require.Len(t, out, 1)
	assert.Equal(t, "in", *out[0].TargetHandle)
}
