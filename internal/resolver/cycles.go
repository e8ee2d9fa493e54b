package resolver

import (
	"fmt"

	"github.com/aretw0/botsmith/pkg/domain"
)

// ImmediateEdges returns the transitions a node takes without waiting for the
// user: conditional-branch targets and, unless the node waits for input, its
// auto-transition.
func ImmediateEdges(n *domain.Node) []domain.Reference {
	if n.DecodeErr != nil {
		return nil
	}
	var out []domain.Reference
	if conds := domain.ConditionsOf(n); conds != nil {
		for _, cm := range conds.Active() {
			if cm.TargetNodeID != "" {
				out = append(out, domain.Reference{From: n.ID, To: cm.TargetNodeID, Kind: domain.RefConditionalTarget})
			}
		}
	}
	if in := domain.InputOf(n); in != nil && in.Active() {
		return out
	}
	if f := domain.FlowOf(n); f != nil {
		if to := f.AutoTarget(); to != "" {
			out = append(out, domain.Reference{From: n.ID, To: to, Kind: domain.RefAutoTransition})
		}
	}
	return out
}

const (
	white = iota
	grey
	black
)

// detectCycles runs a depth-first search over immediate edges in declaration
// order and cuts every back edge. The result is acyclic, so chained
// transitions always terminate.
func (r *Result) detectCycles() {
	color := make(map[string]int, len(r.Order))

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		n, _ := r.Node(id)
		for _, ref := range ImmediateEdges(n) {
			to, ok := r.Target(ref)
			if !ok || !r.Navigable(to) {
				continue
			}
			switch color[to] {
			case grey:
				r.CutEdges[ref] = true
				r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
					Severity: domain.SeverityWarning,
					Kind:     domain.DiagAutoTransitionCycle,
					NodeID:   id,
					Target:   to,
					Message:  fmt.Sprintf("%s to %q closes a cycle of immediate transitions; the edge is not followed", ref.Kind, to),
				})
			case white:
				visit(to)
			}
		}
		color[id] = black
	}

	for i := range r.graph.Nodes {
		id := r.graph.Nodes[i].ID
		if r.index[id] != i || !r.Navigable(id) || color[id] != white {
			continue
		}
		visit(id)
	}
}
