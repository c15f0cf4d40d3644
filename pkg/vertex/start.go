package vertex

import "github.com/AIM-Intelligence/AIM-Forge/pkg/types"

// StartExecutor exists purely to seed the reachable subgraph. It never runs
// user code; it echoes back whatever the Input Assembler handed it, which is
// nil unless the run supplied initial_params (the assembler's start-vertex
// special case routes those params in as this vertex's input). Echoing them
// back out is what lets an edge sourced from start_id carry initial_params
// to its downstream vertex through the ordinary edge-extraction path.
type StartExecutor struct{}

func (StartExecutor) Kind() types.NodeKind { return types.NodeKindStart }

func (StartExecutor) Execute(ctx Context, node types.Node, input interface{}) (interface{}, error) {
	return input, nil
}
