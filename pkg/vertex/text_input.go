package vertex

import "github.com/AIM-Intelligence/AIM-Forge/pkg/types"

// TextInputExecutor returns its externally supplied terminal-seed value
// verbatim, unwrapping the common {value}/{raw_value}/{display} convenience
// envelopes a caller might have wrapped it in. It never consumes edge
// input, since a text_input vertex's role is to originate a constant.
type TextInputExecutor struct{}

func (TextInputExecutor) Kind() types.NodeKind { return types.NodeKindTextInput }

func (TextInputExecutor) Execute(ctx Context, node types.Node, input interface{}) (interface{}, error) {
	seed, ok := ctx.TerminalSeed(node.ID)
	if !ok {
		return "", nil
	}
	if m, ok := seed.(map[string]interface{}); ok {
		for _, key := range []string{"value", "raw_value", "display"} {
			if v, present := m[key]; present {
				return v, nil
			}
		}
	}
	return seed, nil
}
