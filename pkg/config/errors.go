package config

import "errors"

var (
	ErrInvalidMaxWorkers      = errors.New("config: max workers must be positive")
	ErrInvalidNodeTimeout     = errors.New("config: node timeout must not be negative")
	ErrInvalidRPCTimeout      = errors.New("config: rpc timeout must not be negative")
	ErrInvalidInlineThreshold = errors.New("config: inline threshold must not be negative")
	ErrInvalidPreviewMaxChars = errors.New("config: preview max chars must not be negative")
	ErrInvalidResourceLimit   = errors.New("config: resource limits must not be negative")
)
