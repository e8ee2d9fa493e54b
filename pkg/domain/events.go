package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCompileStart EventType = "compile_start"
	EventCompileEnd   EventType = "compile_end"
	EventNodeEmitted  EventType = "node_emitted"
	EventDiagnostic   EventType = "diagnostic"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ProjectID int64     `json:"project_id"`
}

// CompileEvent marks the start or end of a compilation.
type CompileEvent struct {
	EventBase
	Nodes       int           `json:"nodes"`
	Reachable   int           `json:"reachable,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Diagnostics int           `json:"diagnostics,omitempty"`

	// Failed is set when the compilation was aborted, e.g. by a cancelled context.
	Failed bool `json:"failed,omitempty"`
}

// NodeEvent reports the emission of one node.
type NodeEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	NodeType NodeType      `json:"node_type"`
	Duration time.Duration `json:"duration"`
	Failed   bool          `json:"failed,omitempty"`
}

// DiagnosticEvent carries a finding as soon as it is produced.
type DiagnosticEvent struct {
	EventBase
	Diagnostic Diagnostic `json:"diagnostic"`
}

// CompileHooks defines callbacks for compiler observability.
// Hooks may be called from several goroutines.
type CompileHooks struct {
	OnCompileStart func(context.Context, *CompileEvent)
	OnCompileEnd   func(context.Context, *CompileEvent)
	OnNodeEmitted  func(context.Context, *NodeEvent)
	OnDiagnostic   func(context.Context, *DiagnosticEvent)
}
