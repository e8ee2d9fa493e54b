package domain

import (
	"fmt"
	"sort"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticKind classifies a compile finding.
type DiagnosticKind string

const (
	DiagDanglingReference   DiagnosticKind = "dangling_reference"
	DiagEmitterFailure      DiagnosticKind = "emitter_failure"
	DiagCallbackConflict    DiagnosticKind = "callback_conflict"
	DiagAutoTransitionCycle DiagnosticKind = "auto_transition_cycle"
	DiagCollaboratorFailure DiagnosticKind = "collaborator_failure"
	DiagConnectionMismatch  DiagnosticKind = "connection_mismatch"
	DiagInvalidNode         DiagnosticKind = "invalid_node"
	DiagUnsupportedTarget   DiagnosticKind = "unsupported_target"
)

// Diagnostic is a non-fatal finding reported alongside the compiled program.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Kind     DiagnosticKind `json:"kind"`
	NodeID   string         `json:"node_id,omitempty"`
	Target   string         `json:"target,omitempty"`
	Message  string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.NodeID == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Kind, d.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", d.Severity, d.Kind, d.NodeID, d.Message)
}

// Diagnostics is an ordered list of findings.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// OfKind filters the list by kind.
func (ds Diagnostics) OfKind(kind DiagnosticKind) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of diagnostics per severity.
func (ds Diagnostics) Count() map[Severity]int {
	out := make(map[Severity]int)
	for _, d := range ds {
		out[d.Severity]++
	}
	return out
}

// Sorted returns the diagnostics ordered by severity (errors first), keeping
// the original order inside each severity.
func (ds Diagnostics) Sorted() Diagnostics {
	rank := map[Severity]int{SeverityError: 0, SeverityWarning: 1, SeverityInfo: 2}
	out := make(Diagnostics, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Severity] < rank[out[j].Severity]
	})
	return out
}
