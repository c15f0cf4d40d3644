// Package engine is the Scheduler, Input Assembler, and Result Classifier:
// it turns a loaded graph and a start vertex into a bounded-concurrency
// execution of the reachable subgraph, transporting values through an
// object store and reporting progress either synchronously or as a stream
// of events.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/config"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/evaluator"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/graph"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/logging"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/objectstore"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/project"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/vertex"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/worker"
)

// Engine runs flows against a single project's graph and object store.
type Engine struct {
	cfg            *config.Config
	vertices       *vertex.Registry
	store          *objectstore.Store
	logger         *logging.Logger
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	metrics        *metricsRecorder
	evaluator      *evaluator.Evaluator
	workers        *worker.Manager // optional; nil means custom nodes run in-process

	projectID  string
	projectDir string
}

// New builds an Engine for a single project. projectID is the key the
// Worker Process Manager's Spawner resolves to a working directory; dir is
// that same working directory, already resolved, used directly when
// workers is nil. Both name the same project so a worker-backed run and an
// in-process run see identical node files. workers may be nil, in which
// case custom vertices are evaluated in-process instead of through a
// per-project worker.
func New(projectID, dir string, cfg *config.Config, logger *logging.Logger, workers *worker.Manager) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	eval := evaluator.New(nil)
	tp := newTracerProvider()

	e := &Engine{
		cfg:            cfg,
		store:          objectstore.New(cfg.InlineThresholdBytes, cfg.PreviewMaxChars),
		logger:         logger,
		tracerProvider: tp,
		tracer:         newTracer(tp),
		metrics:        newMetricsRecorder(),
		evaluator:      eval,
		workers:        workers,
		projectID:      projectID,
		projectDir:     dir,
	}

	e.vertices = vertex.DefaultRegistry()
	e.vertices.MustRegister(&customExecutor{engine: e})
	return e
}

// NewFromResolver builds an Engine whose projectDir is resolved through r,
// the same resolver backing a worker.ProjectSpawner, so in-process and
// worker-backed execution always agree on where a project's node files
// live.
func NewFromResolver(projectID string, r *project.Resolver, cfg *config.Config, logger *logging.Logger, workers *worker.Manager) (*Engine, error) {
	env, err := r.Resolve(projectID)
	if err != nil {
		return nil, err
	}
	return New(projectID, env.WorkingDir, cfg, logger, workers), nil
}

// ExecuteParams are the caller-supplied inputs to a single run.
type ExecuteParams struct {
	StartID      string
	InitialParams interface{}
	TerminalSeed map[string]interface{}
}

// Store exposes the engine's object store, mostly for tests and for a
// caller that wants to clear it between runs.
func (e *Engine) Store() *objectstore.Store { return e.store }

// Shutdown flushes and stops the engine's private tracer and meter
// providers. Safe to call once per Engine at process shutdown.
func (e *Engine) Shutdown(ctx context.Context) error {
	if err := e.tracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return e.metrics.meterProvider.Shutdown(ctx)
}

// Execute runs the graph loaded from g synchronously and returns the
// aggregate record.
func (e *Engine) Execute(ctx context.Context, g *graph.Graph, params ExecuteParams) (*types.Result, error) {
	run, err := e.newRun(ctx, g, params)
	if err != nil {
		return nil, err
	}
	run.dispatchAll(ctx)
	return run.result(), nil
}

// ExecuteStreaming runs the graph and returns a channel of progress events
// ending with a single complete event. The channel is closed once the
// complete event has been sent.
func (e *Engine) ExecuteStreaming(ctx context.Context, g *graph.Graph, params ExecuteParams) (<-chan streamEventOrError, error) {
	run, err := e.newRun(ctx, g, params)
	if err != nil {
		return nil, err
	}
	events := make(chan streamEventOrError, 16)
	go func() {
		defer close(events)
		run.dispatchStreaming(ctx, events)
	}()
	return events, nil
}

func customFileName(node types.Node) string {
	if node.Data.File != "" {
		return node.Data.File
	}
	return fmt.Sprintf("%s_%s.flow", node.ID, sanitizeTitle(node.Data.Title))
}

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeTitle(title string) string {
	if title == "" {
		return "node"
	}
	return strings.Trim(nonAlnumRe.ReplaceAllString(title, "_"), "_")
}

// customExecutor adapts the evaluator (or, when configured, the worker
// process manager) to vertex.Executor for types.NodeKindCustom.
type customExecutor struct {
	engine *Engine
}

func (c *customExecutor) Kind() types.NodeKind { return types.NodeKindCustom }

func (c *customExecutor) Execute(ctx vertex.Context, node types.Node, input interface{}) (interface{}, error) {
	file := customFileName(node)
	path := filepath.Join(c.engine.projectDir, file)

	if c.engine.workers != nil {
		resp, err := c.engine.workers.Exec(ctx.Ctx, c.engine.projectID, file, input, c.engine.cfg.RPCTimeout)
		if err != nil {
			return nil, err
		}
		if !resp.OK {
			return nil, fmt.Errorf("%s", resp.Error)
		}
		return resp.Output, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("node file not found: %s", file)
	}
	return c.engine.evaluator.Run(string(source), input)
}

// newExecutionID mints a fresh id for a single run, used for tracing and
// as the Result's ExecutionID.
func newExecutionID() string {
	return uuid.NewString()
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
