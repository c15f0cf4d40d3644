package vertex

import (
	"encoding/json"
	"fmt"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

const displayTruncateChars = 1500

// ResultPayload is what a result vertex returns when it has at least one
// reachable in-edge (an "output result"): Value is the unwrapped raw value
// downstream consumers see as the vertex's output, and Display carries the
// human-facing truncated summary plus a pointer back to the full value when
// the incoming value was a reference.
type ResultPayload struct {
	Value   interface{}
	Display map[string]interface{}
}

// ResultExecutor implements both result sub-kinds. Which one applies is
// decided per node by whether it has an in-edge from the reachable
// subgraph, not by any static field on the node itself.
type ResultExecutor struct{}

func (ResultExecutor) Kind() types.NodeKind { return types.NodeKindResult }

func (ResultExecutor) Execute(ctx Context, node types.Node, input interface{}) (interface{}, error) {
	if !ctx.HasReachableInEdge(node.ID) {
		// Input result: preserve the seeded constant, never overwrite
		// from upstream.
		seed, ok := ctx.TerminalSeed(node.ID)
		if !ok {
			return "", nil
		}
		return seed, nil
	}

	raw := input
	unwrapped := ctx.Unwrap(raw)

	display := map[string]interface{}{
		"display": truncateDisplay(unwrapped),
	}
	if ref, isRef := raw.(types.Reference); isRef {
		display["full_ref"] = ref.Ref
	} else {
		display["raw_value"] = raw
	}

	return ResultPayload{Value: unwrapped, Display: display}, nil
}

func truncateDisplay(value interface{}) string {
	var text string
	if s, ok := value.(string); ok {
		text = s
	} else if raw, err := json.Marshal(value); err == nil {
		text = string(raw)
	} else {
		text = fmt.Sprintf("%v", value)
	}
	runes := []rune(text)
	if len(runes) <= displayTruncateChars {
		return text
	}
	return string(runes[:displayTruncateChars])
}
