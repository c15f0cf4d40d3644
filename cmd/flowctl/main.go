// Command flowctl runs a single flow execution against a project directory
// and prints the resulting record as JSON.
//
// Usage:
//
//	flowctl [flags] <project-dir>
//
// Flags:
//
//	-start string
//	    start vertex id (default: the graph's first start-kind vertex)
//	-params string
//	    JSON-encoded initial params passed to the start vertex
//	-seed string
//	    JSON-encoded map of terminal seed values (node_id -> value)
//	-max-workers int
//	    bound on concurrently executing vertices (default 4)
//	-halt-on-error
//	    skip every descendant of a failed vertex (default true)
//	-stream
//	    print one JSON line per progress event instead of a single record
//	-worker string
//	    path to a nodeworker binary; when set, custom vertices run out of
//	    process instead of in this one
//
// Example:
//
//	flowctl -start s -params '3' ./testdata/example_project
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/config"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/engine"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/graph"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/logging"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/project"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/worker"
)

func main() {
	startID := flag.String("start", "", "start vertex id")
	paramsRaw := flag.String("params", "", "JSON-encoded initial params")
	seedRaw := flag.String("seed", "", "JSON-encoded terminal seed map")
	maxWorkers := flag.Int("max-workers", 4, "bound on concurrently executing vertices")
	nodeTimeout := flag.Duration("node-timeout", 30*time.Second, "per-vertex execution deadline")
	haltOnError := flag.Bool("halt-on-error", true, "skip every descendant of a failed vertex")
	stream := flag.Bool("stream", false, "print progress events instead of a single record")
	workerPath := flag.String("worker", "", "path to a nodeworker binary; enables out-of-process custom vertices")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: flowctl [flags] <project-dir>")
		os.Exit(2)
	}
	projectDir, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	var initialParams interface{}
	if *paramsRaw != "" {
		if err := json.Unmarshal([]byte(*paramsRaw), &initialParams); err != nil {
			fatal(fmt.Errorf("parsing -params: %w", err))
		}
	}
	var seed map[string]interface{}
	if *seedRaw != "" {
		if err := json.Unmarshal([]byte(*seedRaw), &seed); err != nil {
			fatal(fmt.Errorf("parsing -seed: %w", err))
		}
	}

	cfg := config.Default()
	cfg.MaxWorkers = *maxWorkers
	cfg.NodeTimeout = *nodeTimeout
	cfg.HaltOnError = *haltOnError
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	g, err := graph.Load(projectDir, cfg.MaxNodes, cfg.MaxEdges)
	if err != nil {
		fatal(err)
	}

	logger := logging.Default()

	var workers *worker.Manager
	projectID := filepath.Base(projectDir)
	if *workerPath != "" {
		resolver := project.NewResolver(filepath.Dir(projectDir), *workerPath)
		spawner := &worker.ProjectSpawner{Resolver: resolver, NodeWorkerPath: *workerPath}
		workers = worker.New(spawner, logger, cfg.WorkerShutdownGrace, cfg.WorkerRetryOnce)
		defer workers.StopAll()
	}

	e := engine.New(projectID, projectDir, cfg, logger, workers)
	params := engine.ExecuteParams{StartID: *startID, InitialParams: initialParams, TerminalSeed: seed}

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)

	if *stream {
		events, err := e.ExecuteStreaming(ctx, g, params)
		if err != nil {
			fatal(err)
		}
		for msg := range events {
			if msg.Err != nil {
				fatal(msg.Err)
			}
			if err := enc.Encode(msg.Event); err != nil {
				fatal(err)
			}
		}
		return
	}

	result, err := e.Execute(ctx, g, params)
	if err != nil {
		fatal(err)
	}
	if err := enc.Encode(result); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "flowctl:", err)
	os.Exit(1)
}
