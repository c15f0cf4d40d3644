package graph

import "errors"

var (
	// ErrTooManyNodes is returned by Load when a structure file declares
	// more nodes than the caller's configured limit allows.
	ErrTooManyNodes = errors.New("graph: too many nodes")
	// ErrTooManyEdges is returned by Load when a structure file declares
	// more edges than the caller's configured limit allows.
	ErrTooManyEdges = errors.New("graph: too many edges")
)
