package resolver

import (
	"fmt"

	"github.com/aretw0/botsmith/pkg/domain"
)

type edge struct{ from, to string }

// compareConnections reports where canvas connections and control flow disagree.
// Buttons and transitions stay authoritative; the findings are informational.
func (r *Result) compareConnections() {
	if len(r.graph.Connections) == 0 {
		return
	}

	flow := make(map[edge]bool)
	var flowOrder []edge
	for i := range r.graph.Nodes {
		n := &r.graph.Nodes[i]
		if n.DecodeErr != nil {
			continue
		}
		for _, ref := range domain.OutgoingReferences(n) {
			to, ok := r.Target(ref)
			if !ok {
				continue
			}
			e := edge{n.ID, to}
			if !flow[e] {
				flow[e] = true
				flowOrder = append(flowOrder, e)
			}
		}
	}

	drawn := make(map[edge]bool, len(r.graph.Connections))
	for _, c := range r.graph.Connections {
		e := edge{c.Source, c.Target}
		drawn[e] = true
		if flow[e] {
			continue
		}
		if _, ok := r.index[c.Source]; !ok {
			continue
		}
		if _, ok := r.index[c.Target]; !ok {
			continue
		}
		r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
			Severity: domain.SeverityInfo,
			Kind:     domain.DiagConnectionMismatch,
			NodeID:   c.Source,
			Target:   c.Target,
			Message:  fmt.Sprintf("connection %q has no matching button or transition; it is not part of the control flow", c.ID),
		})
	}

	for _, e := range flowOrder {
		if drawn[e] {
			continue
		}
		r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
			Severity: domain.SeverityInfo,
			Kind:     domain.DiagConnectionMismatch,
			NodeID:   e.from,
			Target:   e.to,
			Message:  "transition is not drawn as a connection",
		})
	}
}
