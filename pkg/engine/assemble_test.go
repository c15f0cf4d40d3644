package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/config"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/graph"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/objectstore"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

func newAssembleRun(g *graph.Graph, startID string, outputs map[string]interface{}) *run {
	cfg := config.Testing()
	return &run{
		engine:      &Engine{store: objectstore.New(cfg.InlineThresholdBytes, cfg.PreviewMaxChars)},
		sub:         g,
		params:      ExecuteParams{StartID: startID},
		nodeOutputs: outputs,
	}
}

func strp(s string) *string { return &s }

func TestAssembleInput_StartVertexWithNoInEdgesUsesInitialParams(t *testing.T) {
	g := graph.New(
		[]types.Node{{ID: "s", Type: types.NodeKindStart}},
		nil,
	)
	r := newAssembleRun(g, "s", nil)
	r.params.InitialParams = 7

	got := r.assembleInput("s", g.GetNode("s"))
	assert.Equal(t, 7, got)
}

func TestAssembleInput_NoInEdgesAndNoParamsIsNil(t *testing.T) {
	g := graph.New(
		[]types.Node{{ID: "s", Type: types.NodeKindStart}},
		nil,
	)
	r := newAssembleRun(g, "s", nil)
	assert.Nil(t, r.assembleInput("s", g.GetNode("s")))
}

func TestAssembleInput_SingleEdgeWrapsUnderTargetHandle(t *testing.T) {
	g := graph.New(
		[]types.Node{
			{ID: "a", Type: types.NodeKindCustom},
			{ID: "b", Type: types.NodeKindCustom},
		},
		[]types.Edge{{ID: "e1", Source: "a", Target: "b", TargetHandle: strp("x")}},
	)
	r := newAssembleRun(g, "a", map[string]interface{}{"a": 5})

	got := r.assembleInput("b", g.GetNode("b"))
	assert.Equal(t, map[string]interface{}{"x": 5}, got)
}

func TestAssembleInput_SingleEdgeIdempotenceGuardSkipsDoubleWrap(t *testing.T) {
	g := graph.New(
		[]types.Node{
			{ID: "a", Type: types.NodeKindCustom},
			{ID: "b", Type: types.NodeKindCustom},
		},
		[]types.Edge{{ID: "e1", Source: "a", Target: "b", TargetHandle: strp("x")}},
	)
	preStructured := map[string]interface{}{"x": 5}
	r := newAssembleRun(g, "a", map[string]interface{}{"a": preStructured})

	got := r.assembleInput("b", g.GetNode("b"))
	assert.Equal(t, preStructured, got)
}

func TestAssembleInput_MultiEdgeKeysByHandleOrSourceFallback(t *testing.T) {
	g := graph.New(
		[]types.Node{
			{ID: "a", Type: types.NodeKindCustom},
			{ID: "b", Type: types.NodeKindCustom},
			{ID: "c", Type: types.NodeKindCustom},
		},
		[]types.Edge{
			{ID: "e1", Source: "a", Target: "c", TargetHandle: strp("x")},
			{ID: "e2", Source: "b", Target: "c"},
		},
	)
	r := newAssembleRun(g, "a", map[string]interface{}{"a": 1, "b": 2})

	got := r.assembleInput("c", g.GetNode("c"))
	assert.Equal(t, map[string]interface{}{"x": 1, "input_b": 2}, got)
}

func TestAssembleInput_SourceHandleProjectsFromUpstreamMapping(t *testing.T) {
	g := graph.New(
		[]types.Node{
			{ID: "a", Type: types.NodeKindCustom},
			{ID: "b", Type: types.NodeKindCustom},
		},
		[]types.Edge{{ID: "e1", Source: "a", Target: "b", SourceHandle: strp("y")}},
	)
	r := newAssembleRun(g, "a", map[string]interface{}{"a": map[string]interface{}{"y": 9, "z": 10}})

	got := r.assembleInput("b", g.GetNode("b"))
	assert.Equal(t, 9, got)
}

func TestAssembleInput_MissingUpstreamOutputIsNil(t *testing.T) {
	g := graph.New(
		[]types.Node{
			{ID: "a", Type: types.NodeKindCustom},
			{ID: "b", Type: types.NodeKindCustom},
		},
		[]types.Edge{{ID: "e1", Source: "a", Target: "b"}},
	)
	r := newAssembleRun(g, "a", map[string]interface{}{})

	assert.Nil(t, r.assembleInput("b", g.GetNode("b")))
}

// TestAssembleInput_FanInCollapsesWhenOnePredecessorHasNoStoredOutput covers
// halt_on_error=false fan-in: a's in-edge has no entry in nodeOutputs at all
// (the shape an errored or skipped predecessor actually leaves behind, not
// a hand-inserted nil), so it must be dropped rather than contribute a nil
// key, collapsing what would be a two-edge merge down to single-edge rules.
func TestAssembleInput_FanInCollapsesWhenOnePredecessorHasNoStoredOutput(t *testing.T) {
	g := graph.New(
		[]types.Node{
			{ID: "a", Type: types.NodeKindCustom},
			{ID: "b", Type: types.NodeKindCustom},
			{ID: "c", Type: types.NodeKindCustom},
		},
		[]types.Edge{
			{ID: "e1", Source: "a", Target: "c", TargetHandle: strp("x")},
			{ID: "e2", Source: "b", Target: "c", TargetHandle: strp("y")},
		},
	)
	// a errored (or was skipped): recordOutcome/markSkipped never populate
	// nodeOutputs["a"] for that outcome, so it is genuinely absent here.
	r := newAssembleRun(g, "a", map[string]interface{}{"b": 2})

	got := r.assembleInput("c", g.GetNode("c"))
	assert.Equal(t, map[string]interface{}{"y": 2}, got)
}
