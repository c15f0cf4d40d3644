// Package vertex implements the Strategy pattern for per-kind vertex
// execution: start, text_input, and result each have fixed, simple
// semantics, while custom vertices delegate to whatever Executor is
// registered for types.NodeKindCustom (the in-process or worker-backed
// evaluator, wired in by the engine).
package vertex

import (
	"context"
	"fmt"
	"sync"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

// Context is the narrow slice of engine state a vertex Executor needs.
// Keeping this interface independent of the engine package avoids a
// circular import between engine and vertex.
type Context struct {
	// Ctx carries the per-vertex deadline; only executors that make a
	// blocking call (the custom-node evaluator) need to look at it.
	Ctx context.Context

	// TerminalSeed returns the externally supplied seed value for nodeID,
	// if any was provided for this run.
	TerminalSeed func(nodeID string) (interface{}, bool)

	// HasReachableInEdge reports whether nodeID has at least one in-edge
	// whose source participates in the reachable subgraph for this run.
	HasReachableInEdge func(nodeID string) bool

	// Unwrap resolves any reference envelope in value to its stored form.
	Unwrap func(value interface{}) interface{}
}

// Executor runs one vertex kind given its assembled input.
type Executor interface {
	Execute(ctx Context, node types.Node, input interface{}) (interface{}, error)
	Kind() types.NodeKind
}

// Registry dispatches to the Executor registered for a node's kind.
type Registry struct {
	mu        sync.RWMutex
	executors map[types.NodeKind]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[types.NodeKind]Executor)}
}

// Register adds an Executor, erroring if its kind is already registered.
func (r *Registry) Register(exec Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kind := exec.Kind()
	if _, exists := r.executors[kind]; exists {
		return fmt.Errorf("vertex: executor already registered for kind %q", kind)
	}
	r.executors[kind] = exec
	return nil
}

// MustRegister registers an Executor and panics on error, for use during
// fixed registry construction at startup.
func (r *Registry) MustRegister(exec Executor) {
	if err := r.Register(exec); err != nil {
		panic(err)
	}
}

// Execute dispatches to the registered executor for node.Type.
func (r *Registry) Execute(ctx Context, node types.Node, input interface{}) (interface{}, error) {
	r.mu.RLock()
	exec, exists := r.executors[node.Type]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("vertex: no executor registered for kind %q", node.Type)
	}
	return exec.Execute(ctx, node, input)
}

// DefaultRegistry wires the three fixed-behavior vertex kinds. Callers
// still need to register a types.NodeKindCustom executor themselves, since
// its behavior depends on the evaluator/worker wiring chosen by the
// engine.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(StartExecutor{})
	r.MustRegister(TextInputExecutor{})
	r.MustRegister(ResultExecutor{})
	return r
}
