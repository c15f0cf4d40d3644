// Package config centralizes execution engine configuration: worker pool
// sizing, timeouts, object store thresholds, and worker-process RPC tuning.
package config

import "time"

// Config holds execution engine configuration. All tunables live here so
// callers never have to thread individual parameters through the engine.
type Config struct {
	// Concurrency
	MaxWorkers int // bound on concurrently executing vertices, default 4

	// Timeouts
	NodeTimeout time.Duration // per-vertex execution deadline, default 30s
	RPCTimeout  time.Duration // worker RPC round-trip deadline, default 30s

	// Halt semantics
	HaltOnError bool // mark every descendant of a failed vertex skipped instead of dispatching it

	// Object store
	InlineThresholdBytes int // values below this serialized size pass by value
	PreviewMaxChars      int // truncation length for reference previews

	// Worker process management
	WorkerShutdownGrace time.Duration // SIGTERM grace before SIGKILL
	WorkerRetryOnce     bool          // retry a failed RPC once against a fresh worker

	// Resource limits
	MaxNodes int // maximum number of nodes accepted in a loaded graph
	MaxEdges int // maximum number of edges accepted in a loaded graph
}

// Default returns production-ready defaults.
func Default() *Config {
	return &Config{
		MaxWorkers:           4,
		NodeTimeout:          30 * time.Second,
		RPCTimeout:           30 * time.Second,
		HaltOnError:          true,
		InlineThresholdBytes: 10 * 1024,
		PreviewMaxChars:      100,
		WorkerShutdownGrace:  5 * time.Second,
		WorkerRetryOnce:      true,
		MaxNodes:             1000,
		MaxEdges:             5000,
	}
}

// Development relaxes timeouts for local iteration.
func Development() *Config {
	cfg := Default()
	cfg.NodeTimeout = 2 * time.Minute
	cfg.RPCTimeout = 2 * time.Minute
	cfg.HaltOnError = false
	return cfg
}

// Production raises the concurrency bound to 8 workers and keeps
// halt-on-error enabled; every other setting is the default.
func Production() *Config {
	cfg := Default()
	cfg.HaltOnError = true
	cfg.MaxWorkers = 8
	return cfg
}

// Testing minimizes wall-clock cost for table-driven tests.
func Testing() *Config {
	cfg := Default()
	cfg.NodeTimeout = 5 * time.Second
	cfg.RPCTimeout = 5 * time.Second
	cfg.WorkerShutdownGrace = 200 * time.Millisecond
	return cfg
}

// Validate rejects nonsensical configuration before it reaches the engine.
func (c *Config) Validate() error {
	if c.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}
	if c.NodeTimeout < 0 {
		return ErrInvalidNodeTimeout
	}
	if c.RPCTimeout < 0 {
		return ErrInvalidRPCTimeout
	}
	if c.InlineThresholdBytes < 0 {
		return ErrInvalidInlineThreshold
	}
	if c.PreviewMaxChars < 0 {
		return ErrInvalidPreviewMaxChars
	}
	if c.MaxNodes < 0 || c.MaxEdges < 0 {
		return ErrInvalidResourceLimit
	}
	return nil
}

// Clone returns a deep copy; Config currently has no reference fields but
// Clone is kept so callers never need to know that.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
