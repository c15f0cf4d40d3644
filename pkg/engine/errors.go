package engine

import "errors"

var (
	ErrStartNodeMissing = errors.New("engine: start node not found")
	ErrCycleDetected    = errors.New("engine: reachable subgraph contains a cycle")
	ErrNoStartProvided  = errors.New("engine: no start id provided and graph has no start vertex")
)
