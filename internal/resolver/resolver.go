// Package resolver computes which nodes of a bot graph are exercised by some
// control-flow path, which references dangle and which immediate transitions
// must be cut so the generated bot can never chain forever.
package resolver

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/pkg/domain"
)

// Result is the outcome of a resolution pass. It is read-only once returned.
type Result struct {
	// Reachable holds every node id that is emitted.
	Reachable map[string]bool
	// Order lists the reachable ids in declaration order.
	Order []string
	// Dangling lists references whose target does not exist.
	Dangling []domain.Reference
	// Unsupported lists references to nodes a user cannot be sent to.
	Unsupported []domain.Reference
	// CutEdges are immediate transitions removed to break cycles.
	CutEdges map[domain.Reference]bool
	// Commands maps a command name (without "/") to the node that handles it.
	Commands map[string]string
	// Diagnostics collects the findings of the pass.
	Diagnostics domain.Diagnostics

	graph *domain.Graph
	index map[string]int
}

// Resolve walks the graph once from its entry points.
// With emitAll every declared node is considered reachable.
func Resolve(g *domain.Graph, emitAll bool) *Result {
	r := &Result{
		Reachable: make(map[string]bool, len(g.Nodes)),
		CutEdges:  make(map[domain.Reference]bool),
		Commands:  make(map[string]string),
		graph:     g,
		index:     g.Index(),
	}

	r.indexCommands()
	r.closure(emitAll)
	r.checkReferences()
	r.detectCycles()
	r.compareConnections()

	for i, n := range g.Nodes {
		if r.index[n.ID] != i {
			r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
				Severity: domain.SeverityWarning,
				Kind:     domain.DiagInvalidNode,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("duplicate node id; declaration #%d is ignored", i),
			})
			continue
		}
		if r.Reachable[n.ID] {
			r.Order = append(r.Order, n.ID)
		}
	}
	return r
}

// Graph returns the resolved graph.
func (r *Result) Graph() *domain.Graph {
	return r.graph
}

// Node returns the node declared under id.
func (r *Result) Node(id string) (*domain.Node, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.graph.Nodes[i], true
}

// Target resolves the node id a reference points at.
// Command buttons accept a node id or a command name with an optional leading "/".
func (r *Result) Target(ref domain.Reference) (string, bool) {
	to := strings.TrimSpace(ref.To)
	if _, ok := r.index[to]; ok {
		return to, true
	}
	if ref.Kind == domain.RefCommandButton || strings.HasPrefix(to, "/") {
		if id, ok := r.Commands[domain.NormalizeCommand(to)]; ok {
			return id, true
		}
	}
	return "", false
}

// Navigable reports whether a user can be sent to the node with the given id:
// it exists, is emitted and renders a screen.
func (r *Result) Navigable(id string) bool {
	n, ok := r.Node(id)
	if !ok || !r.Reachable[id] || n.DecodeErr != nil {
		return false
	}
	return n.Type.Navigable()
}

// IsCut reports whether an immediate transition was removed to break a cycle.
func (r *Result) IsCut(ref domain.Reference) bool {
	return r.CutEdges[ref]
}

func (r *Result) indexCommands() {
	for i := range r.graph.Nodes {
		n := &r.graph.Nodes[i]
		if n.DecodeErr != nil {
			continue
		}
		name := domain.CommandOf(n)
		if name == "" {
			continue
		}
		if owner, taken := r.Commands[name]; taken {
			if owner != n.ID {
				r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
					Severity: domain.SeverityWarning,
					Kind:     domain.DiagCallbackConflict,
					NodeID:   n.ID,
					Target:   owner,
					Message:  fmt.Sprintf("command /%s is already handled by %q; this node will not receive it", name, owner),
				})
			}
			continue
		}
		r.Commands[name] = n.ID
	}
}

// isRoot reports whether a user can enter the node without being sent there.
func isRoot(n *domain.Node) bool {
	if n.Type == domain.NodeTypeStart || !n.Type.Navigable() {
		return true
	}
	t := domain.TriggerOf(n)
	if t == nil {
		return false
	}
	return t.ShowInMenu || t.CommandName() != "" || len(t.Synonyms) > 0
}

func (r *Result) closure(emitAll bool) {
	var queue []string
	for i := range r.graph.Nodes {
		n := &r.graph.Nodes[i]
		if emitAll || isRoot(n) {
			if !r.Reachable[n.ID] {
				r.Reachable[n.ID] = true
				queue = append(queue, n.ID)
			}
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := r.Node(id)
		if !ok || n.DecodeErr != nil {
			continue
		}
		for _, ref := range domain.OutgoingReferences(n) {
			to, ok := r.Target(ref)
			if !ok || r.Reachable[to] {
				continue
			}
			r.Reachable[to] = true
			queue = append(queue, to)
		}
	}
}

func (r *Result) checkReferences() {
	for i := range r.graph.Nodes {
		n := &r.graph.Nodes[i]
		if n.DecodeErr != nil || !r.Reachable[n.ID] {
			continue
		}
		for _, ref := range domain.OutgoingReferences(n) {
			to, ok := r.Target(ref)
			if !ok {
				r.Dangling = append(r.Dangling, ref)
				r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
					Severity: domain.SeverityWarning,
					Kind:     domain.DiagDanglingReference,
					NodeID:   n.ID,
					Target:   ref.To,
					Message:  fmt.Sprintf("%s points at unknown node %q; emitted as a no-op", ref.Kind, ref.To),
				})
				continue
			}
			target, _ := r.Node(to)
			if target.DecodeErr == nil && !target.Type.Navigable() {
				r.Unsupported = append(r.Unsupported, ref)
				r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
					Severity: domain.SeverityWarning,
					Kind:     domain.DiagUnsupportedTarget,
					NodeID:   n.ID,
					Target:   to,
					Message:  fmt.Sprintf("%s points at %s node %q which only reacts to group commands; emitted as a no-op", ref.Kind, target.Type, to),
				})
			}
		}
	}
}
