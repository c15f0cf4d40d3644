package engine

import "github.com/AIM-Intelligence/AIM-Forge/pkg/types"

// assembleInput implements the Input Assembler: it turns a target vertex's
// in-edges and the producers' stored outputs into the shape that vertex's
// evaluator call expects.
func (r *run) assembleInput(targetID string, node *types.Node) interface{} {
	inEdges := r.sub.GetNodeInputEdges(targetID)

	// Rule 3: the start vertex special case.
	if targetID == r.params.StartID && len(inEdges) == 0 && r.params.InitialParams != nil {
		return r.params.InitialParams
	}

	if len(inEdges) == 0 {
		return nil
	}

	// Only in-edges whose source has a stored output count: a predecessor
	// that errored or was skipped never reaches nodeOutputs, so its edge is
	// treated as if it didn't exist rather than contributing a nil value.
	extracted := make([]extractedEdge, 0, len(inEdges))
	for _, e := range inEdges {
		raw, ok := r.nodeOutputs[e.Source]
		if !ok {
			continue
		}
		extracted = append(extracted, extractedEdge{edge: e, value: r.extractEdgeValue(e, raw)})
	}

	if len(extracted) == 0 {
		return nil
	}
	if len(extracted) == 1 {
		return assembleSingleEdge(extracted[0])
	}
	return assembleMultiEdge(extracted)
}

type extractedEdge struct {
	edge  types.Edge
	value interface{}
}

// extractEdgeValue implements rule 1: unwrap a reference through the
// object store (degrading to its preview on a missing ref), then project
// through sourceHandle when the upstream value is a mapping.
func (r *run) extractEdgeValue(e types.Edge, raw interface{}) interface{} {
	unwrapped := r.engine.store.Unwrap(raw)

	if m, ok := unwrapped.(map[string]interface{}); ok && e.SourceHandle != nil {
		if v, present := m[*e.SourceHandle]; present {
			return v
		}
	}
	return unwrapped
}

// assembleSingleEdge implements rule 2's single in-edge case together with
// rule 4's idempotence guard: when the extracted value is already a
// mapping whose only key is the target handle itself, the value was
// pre-structured upstream and is passed through unchanged rather than
// wrapped a second time.
func assembleSingleEdge(e extractedEdge) interface{} {
	if e.edge.TargetHandle == nil {
		return e.value
	}
	handle := *e.edge.TargetHandle
	if m, ok := e.value.(map[string]interface{}); ok && len(m) == 1 {
		if _, matches := m[handle]; matches {
			return m
		}
	}
	return map[string]interface{}{handle: e.value}
}

// assembleMultiEdge implements rule 2's multiple in-edge case: one key per
// edge, keyed by targetHandle (or "input_{source}" when absent); later
// edges in edge order win on key collisions.
func assembleMultiEdge(edges []extractedEdge) map[string]interface{} {
	assembled := make(map[string]interface{}, len(edges))
	for _, e := range edges {
		key := "input_" + e.edge.Source
		if e.edge.TargetHandle != nil {
			key = *e.edge.TargetHandle
		}
		assembled[key] = e.value
	}
	return assembled
}
