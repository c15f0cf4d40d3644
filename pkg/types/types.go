// Package types holds the data model shared across the execution engine:
// the persisted graph shapes, the runtime result record, and the small set
// of vertex kinds the engine understands natively.
package types

// NodeKind identifies how a vertex is executed.
type NodeKind string

const (
	NodeKindStart     NodeKind = "start"
	NodeKindResult    NodeKind = "result"
	NodeKindTextInput NodeKind = "text_input"
	NodeKindCustom    NodeKind = "custom"
)

// NodeData carries the node's display and execution metadata as persisted
// in structure.json. Extra is excluded from JSON encoding and decoding, so
// Load leaves it empty and fields not otherwise modeled here are dropped.
type NodeData struct {
	Title         string                 `json:"title,omitempty"`
	File          string                 `json:"file,omitempty"`
	ComponentType string                 `json:"componentType,omitempty"`
	Value         interface{}            `json:"value,omitempty"`
	Extra         map[string]interface{} `json:"-"`
}

// Node is a single vertex of the persisted graph.
type Node struct {
	ID   string   `json:"id"`
	Type NodeKind `json:"type"`
	Data NodeData `json:"data"`
}

// Edge connects a source vertex's output handle to a target vertex's input
// handle. SourceHandle and TargetHandle are nil when the graph file omits
// them, which the Input Assembler treats as the node's sole output/input.
type Edge struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	SourceHandle *string `json:"sourceHandle,omitempty"`
	TargetHandle *string `json:"targetHandle,omitempty"`
	Param        *string `json:"param,omitempty"`
}

// Reference is the envelope a non-scalar value is wrapped in by the object
// store, instead of being passed by value, when its serialized form is too
// large or it does not serialize at all.
type Reference struct {
	Type     string `json:"type"`
	Ref      string `json:"ref"`
	Preview  string `json:"preview"`
	DataType string `json:"data_type"`
	Size     int    `json:"size"`
}

// NodeStatus is the terminal state of a single vertex's execution.
type NodeStatus string

const (
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
	NodeStatusSkipped NodeStatus = "skipped"
)

// NodeResult records one vertex's terminal outcome.
type NodeResult struct {
	NodeID          string                 `json:"node_id"`
	Status          NodeStatus             `json:"status"`
	Output          interface{}            `json:"output,omitempty"`
	Error           string                 `json:"error,omitempty"`
	TimeMs          int64                  `json:"time_ms"`
	DisplayMetadata map[string]interface{} `json:"display_metadata,omitempty"`
}

// Result is the terminal record of a full run.
type Result struct {
	ExecutionID string                 `json:"execution_id"`
	Nodes       map[string]NodeResult  `json:"nodes"`
	Outputs     map[string]interface{} `json:"outputs"`
	Order       []string               `json:"order"`
}
