// Package stream defines the event shapes the Streaming Runner emits while
// a run is in flight: a single start event, zero or more node_complete
// events, and a single closing complete event.
package stream

import (
	"time"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

// Type identifies which of the three event shapes an Event carries.
type Type string

const (
	TypeStart        Type = "start"
	TypeNodeComplete Type = "node_complete"
	TypeComplete     Type = "complete"
)

// Event is a single message on the streaming consumer channel. Only the
// fields relevant to its Type are populated.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// TypeStart
	TotalNodes        int      `json:"total_nodes,omitempty"`
	ExecutionOrder    []string `json:"execution_order,omitempty"`
	AffectedNodes     []string `json:"affected_nodes,omitempty"`
	InputResultNodes  []string `json:"input_result_nodes,omitempty"`
	OutputResultNodes []string `json:"output_result_nodes,omitempty"`

	// TypeNodeComplete
	NodeID    string            `json:"node_id,omitempty"`
	NodeIndex int               `json:"node_index,omitempty"`
	Status    types.NodeStatus  `json:"status,omitempty"`
	Output    interface{}       `json:"output,omitempty"`
	Error     string            `json:"error,omitempty"`

	// TypeComplete
	ExecutionResults     map[string]types.NodeResult `json:"execution_results,omitempty"`
	ResultNodes          map[string]interface{}      `json:"result_nodes,omitempty"`
	TotalExecutionTimeMs int64                       `json:"total_execution_time_ms,omitempty"`
}
