package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/graph"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/logging"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/stream"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/vertex"
)

// streamEventOrError is one message on the ExecuteStreaming channel. The
// scheduler only ever sends Event; an unknown start vertex or a cycle is
// reported by ExecuteStreaming's own error return before any channel exists.
type streamEventOrError struct {
	Event stream.Event
	Err   error
}

// run holds all per-invocation state for a single Execute/ExecuteStreaming
// call. The Engine itself is stateless across runs except for its shared
// object store.
type run struct {
	engine *Engine
	sub    *graph.Graph
	order  []string

	mainIndex         map[string]int
	totalMain         int
	inputResultNodes  []string
	outputResultNodes []string

	params      ExecuteParams
	executionID string
	startedAt   time.Time

	mu          sync.Mutex
	nodeOutputs map[string]interface{}
	results     map[string]types.NodeResult
	resultVals  map[string]interface{}
	executed    map[string]bool
	skipped     map[string]bool
	completedMain int
}

func (e *Engine) newRun(ctx context.Context, g *graph.Graph, params ExecuteParams) (*run, error) {
	if params.StartID == "" {
		id, err := defaultStartID(g)
		if err != nil {
			return nil, err
		}
		params.StartID = id
	}

	reachable, err := g.Reachable(params.StartID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStartNodeMissing, params.StartID)
	}
	sub := g.Subgraph(reachable)
	order, err := sub.TopologicalSort()
	if err != nil {
		return nil, ErrCycleDetected
	}

	r := &run{
		engine:      e,
		sub:         sub,
		order:       order,
		params:      params,
		executionID: newExecutionID(),
		startedAt:   time.Now(),
		nodeOutputs: make(map[string]interface{}, len(order)),
		results:     make(map[string]types.NodeResult, len(order)),
		resultVals:  make(map[string]interface{}),
		executed:    make(map[string]bool, len(order)),
		skipped:     make(map[string]bool),
	}

	r.mainIndex = make(map[string]int, len(order))
	idx := 1
	for _, id := range order {
		node := sub.GetNode(id)
		if node != nil && isMainKind(node.Type) {
			r.mainIndex[id] = idx
			idx++
		}
	}
	r.totalMain = idx - 1

	for _, id := range order {
		node := sub.GetNode(id)
		if node == nil || node.Type != types.NodeKindResult {
			continue
		}
		if len(sub.GetNodeInputEdges(id)) > 0 {
			r.outputResultNodes = append(r.outputResultNodes, id)
		} else {
			r.inputResultNodes = append(r.inputResultNodes, id)
		}
	}

	return r, nil
}

// defaultStartID resolves an omitted start_id to the graph's first
// start-kind vertex in structure-file order. A graph with no start vertex at
// all cannot be run without an explicit start_id.
func defaultStartID(g *graph.Graph) (string, error) {
	for _, id := range g.NodeIDs() {
		if node := g.GetNode(id); node != nil && node.Type == types.NodeKindStart {
			return id, nil
		}
	}
	return "", ErrNoStartProvided
}

func isMainKind(k types.NodeKind) bool {
	return k != types.NodeKindStart && k != types.NodeKindResult && k != types.NodeKindTextInput
}

// dispatchAll runs the scheduler to completion without emitting events,
// for the synchronous Execute entry point.
func (r *run) dispatchAll(ctx context.Context) {
	ctx, span := r.engine.tracer.Start(ctx, "flow.execute")
	defer span.End()
	r.runLoop(ctx, nil)
	r.engine.metrics.recordRun(ctx)
}

// dispatchStreaming runs the scheduler emitting start/node_complete/complete
// events on events as they occur.
func (r *run) dispatchStreaming(ctx context.Context, events chan<- streamEventOrError) {
	ctx, span := r.engine.tracer.Start(ctx, "flow.execute")
	defer span.End()
	events <- streamEventOrError{Event: stream.Event{
		Type:              stream.TypeStart,
		Timestamp:         time.Now(),
		TotalNodes:        r.totalMain,
		ExecutionOrder:    r.order,
		AffectedNodes:     r.order,
		InputResultNodes:  r.inputResultNodes,
		OutputResultNodes: r.outputResultNodes,
	}}
	r.runLoop(ctx, events)
	r.engine.metrics.recordRun(ctx)
	events <- streamEventOrError{Event: stream.Event{
		Type:                 stream.TypeComplete,
		Timestamp:            time.Now(),
		ExecutionResults:     r.snapshotResults(),
		ResultNodes:          r.snapshotResultVals(),
		ExecutionOrder:       r.order,
		TotalExecutionTimeMs: time.Since(r.startedAt).Milliseconds(),
	}}
}

type vertexOutcome struct {
	nodeID  string
	status  types.NodeStatus
	output  interface{}
	display map[string]interface{}
	errMsg  string
	timeMs  int64
}

// runLoop implements the level-parallel dispatch described for the
// Scheduler: vertices become ready as soon as every predecessor has
// finished, ready vertices run concurrently bounded by max_workers, and a
// failure under halt_on_error marks every transitive descendant skipped
// without dispatching it.
func (r *run) runLoop(ctx context.Context, events chan<- streamEventOrError) {
	inDegree := make(map[string]int, len(r.order))
	dependents := make(map[string][]string, len(r.order))
	for _, id := range r.order {
		inDegree[id] = len(r.sub.GetNodeInputEdges(id))
	}
	for _, id := range r.order {
		for _, e := range r.sub.GetNodeOutputEdges(id) {
			dependents[id] = append(dependents[id], e.Target)
		}
	}

	sem := semaphore.NewWeighted(int64(maxInt(1, r.engine.cfg.MaxWorkers)))
	completions := make(chan vertexOutcome, len(r.order))
	dispatchedCount := 0
	dispatched := make(map[string]bool, len(r.order))

	var dispatch func(id string)
	dispatch = func(id string) {
		dispatched[id] = true
		dispatchedCount++
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				completions <- vertexOutcome{nodeID: id, status: types.NodeStatusError, errMsg: err.Error()}
				return
			}
			defer sem.Release(1)
			completions <- r.executeVertex(ctx, id)
		}()
	}

	for _, id := range r.order {
		if inDegree[id] == 0 {
			dispatch(id)
		}
	}

	remaining := len(r.order)
	for remaining > 0 {
		outcome := <-completions
		remaining--

		r.recordOutcome(outcome)
		if events != nil {
			r.emitNodeComplete(events, outcome)
		}

		if outcome.status == types.NodeStatusError && r.engine.cfg.HaltOnError {
			toSkip := r.descendantsOf(outcome.nodeID, dependents)
			for _, skipID := range toSkip {
				if dispatched[skipID] || r.skipped[skipID] {
					continue
				}
				r.markSkipped(skipID, outcome.nodeID)
				dispatched[skipID] = true
				remaining--
				if events != nil {
					r.emitNodeComplete(events, vertexOutcome{nodeID: skipID, status: types.NodeStatusSkipped})
				}
			}
		}

		for _, dep := range dependents[outcome.nodeID] {
			if dispatched[dep] {
				continue
			}
			inDegree[dep]--
			if inDegree[dep] == 0 {
				dispatch(dep)
			}
		}
	}
}

// descendantsOf returns every node reachable from id by following
// dependents edges, not including id itself.
func (r *run) descendantsOf(id string, dependents map[string][]string) []string {
	visited := make(map[string]bool)
	queue := append([]string{}, dependents[id]...)
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, dependents[cur]...)
	}
	return out
}

func (r *run) markSkipped(id, upstreamFailure string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[id] = true
	r.results[id] = types.NodeResult{
		NodeID: id,
		Status: types.NodeStatusSkipped,
		Error:  fmt.Sprintf("upstream failure: %s", upstreamFailure),
	}
}

func (r *run) recordOutcome(o vertexOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed[o.nodeID] = true
	r.results[o.nodeID] = types.NodeResult{
		NodeID:          o.nodeID,
		Status:          o.status,
		Output:          o.output,
		Error:           o.errMsg,
		TimeMs:          o.timeMs,
		DisplayMetadata: o.display,
	}
	if o.status == types.NodeStatusSuccess {
		r.nodeOutputs[o.nodeID] = o.output
	}

	node := r.sub.GetNode(o.nodeID)
	if node != nil && node.Type == types.NodeKindResult {
		r.resultVals[o.nodeID] = o.output
	}
}

func (r *run) emitNodeComplete(events chan<- streamEventOrError, o vertexOutcome) {
	node := r.sub.GetNode(o.nodeID)
	if node == nil {
		return
	}
	switch node.Type {
	case types.NodeKindStart, types.NodeKindTextInput:
		return
	case types.NodeKindResult:
		r.mu.Lock()
		idx := r.completedMain
		r.mu.Unlock()
		events <- streamEventOrError{Event: stream.Event{
			Type:      stream.TypeNodeComplete,
			Timestamp: time.Now(),
			NodeID:    o.nodeID,
			NodeIndex: idx,
			Status:    o.status,
			Output:    o.output,
			Error:     o.errMsg,
		}}
	default:
		r.mu.Lock()
		r.completedMain++
		idx := r.mainIndex[o.nodeID]
		r.mu.Unlock()
		events <- streamEventOrError{Event: stream.Event{
			Type:      stream.TypeNodeComplete,
			Timestamp: time.Now(),
			NodeID:    o.nodeID,
			NodeIndex: idx,
			Status:    o.status,
			Output:    o.output,
			Error:     o.errMsg,
		}}
	}
}

func (r *run) executeVertex(ctx context.Context, id string) vertexOutcome {
	ctx, span := r.engine.tracer.Start(ctx, "flow.vertex")
	defer span.End()

	node := r.sub.GetNode(id)
	if node == nil {
		return vertexOutcome{nodeID: id, status: types.NodeStatusError, errMsg: "node not found"}
	}

	input := r.assembleInput(id, node)

	vctx, cancel := context.WithTimeout(ctx, r.engine.cfg.NodeTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		r.engine.metrics.recordNodeDuration(ctx, string(node.Type), time.Since(start).Seconds())
	}()
	vc := vertex.Context{
		Ctx: vctx,
		TerminalSeed: func(nodeID string) (interface{}, bool) {
			v, ok := r.params.TerminalSeed[nodeID]
			return v, ok
		},
		HasReachableInEdge: func(nodeID string) bool {
			return len(r.sub.GetNodeInputEdges(nodeID)) > 0
		},
		Unwrap: r.engine.store.Unwrap,
	}

	out, err := r.engine.vertices.Execute(vc, *node, input)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		r.engine.logger.Warn("vertex failed", logging.Fields{"node_id": id, "error": err.Error()})
		r.engine.metrics.recordNodeExecution(ctx, string(types.NodeStatusError))
		return vertexOutcome{nodeID: id, status: types.NodeStatusError, errMsg: err.Error(), timeMs: elapsed}
	}
	r.engine.metrics.recordNodeExecution(ctx, string(types.NodeStatusSuccess))

	// An output-class result vertex returns its raw, already-unwrapped
	// value plus display metadata; that value is never re-wrapped into a
	// reference, so downstream consumers (and the caller) see the real
	// datum rather than an envelope.
	if payload, ok := out.(vertex.ResultPayload); ok {
		return vertexOutcome{nodeID: id, status: types.NodeStatusSuccess, output: payload.Value, display: payload.Display, timeMs: elapsed}
	}

	wrapped := r.engine.store.Wrap(id, out)
	return vertexOutcome{nodeID: id, status: types.NodeStatusSuccess, output: wrapped, timeMs: elapsed}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (r *run) result() *types.Result {
	return &types.Result{
		ExecutionID: r.executionID,
		Nodes:       r.snapshotResults(),
		Outputs:     r.snapshotResultVals(),
		Order:       r.order,
	}
}

func (r *run) snapshotResults() map[string]types.NodeResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]types.NodeResult, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out
}

func (r *run) snapshotResultVals() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]interface{}, len(r.resultVals))
	for k, v := range r.resultVals {
		out[k] = v
	}
	return out
}
