package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

// GoTo emits the call routing a user through the dispatch table.
func GoTo(target, message string) pysrc.Line {
	return pysrc.L("await go_to(%s, %s, app, user_id)", pysrc.Quote(target), message)
}

// Transition emits the navigation for one control-flow edge. Dangling,
// unsupported and cycle-closing edges become a comment so the generated
// program stays valid and never loops.
func Transition(ctx *Context, ref domain.Reference, message string) []pysrc.Stmt {
	res := ctx.Resolution
	to, ok := res.Target(ref)
	switch {
	case !ok:
		return []pysrc.Stmt{pysrc.Comment(fmt.Sprintf("%s target %q does not exist", ref.Kind, ref.To))}
	case res.IsCut(ref):
		return []pysrc.Stmt{pysrc.Comment(fmt.Sprintf("%s to %q skipped: it would loop back", ref.Kind, to))}
	case !res.Navigable(to):
		return []pysrc.Stmt{pysrc.Comment(fmt.Sprintf("%s target %q cannot be shown", ref.Kind, to))}
	}
	return []pysrc.Stmt{GoTo(to, message)}
}

// NextAfterInput returns the node a collected answer continues to:
// nextNodeAfterInput, else the auto-transition target. The bool is false
// when a configured target cannot be followed.
func NextAfterInput(ctx *Context, n *domain.Node, explicit string) (string, bool) {
	candidate := strings.TrimSpace(explicit)
	if candidate == "" {
		if f := domain.FlowOf(n); f != nil {
			candidate = f.AutoTarget()
		}
	}
	if candidate == "" {
		return "", true
	}
	to, ok := ctx.Resolution.Target(domain.Reference{From: n.ID, To: candidate, Kind: domain.RefInputNext})
	if !ok || !ctx.Resolution.Navigable(to) {
		return "", false
	}
	return to, true
}

// waitState describes what a node waits for.
type waitState struct {
	node      *domain.Node
	types     []string
	variable  string
	variables map[string]string
	next      string
	inputType string
	minLength int
	maxLength int
	save      bool
	retryText string
}

func (w waitState) stmt(ctx *Context) pysrc.Stmt {
	var b strings.Builder
	fmt.Fprintf(&b, "app.waiting[user_id] = {\n")
	fmt.Fprintf(&b, "    \"node_id\": %s,\n", pysrc.Quote(w.node.ID))
	fmt.Fprintf(&b, "    \"types\": %s,\n", pysrc.StrList(w.types))
	fmt.Fprintf(&b, "    \"variable\": %s,\n", pysrc.Quote(w.variable))
	if len(w.variables) > 0 {
		b.WriteString("    \"variables\": {")
		first := true
		for _, kind := range domain.MediaKinds() {
			v, ok := w.variables[string(kind)]
			if !ok {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%s: %s", pysrc.Quote(string(kind)), pysrc.Quote(v))
		}
		b.WriteString("},\n")
	}
	fmt.Fprintf(&b, "    \"next_node_id\": %s,\n", pysrc.OptString(w.next))
	fmt.Fprintf(&b, "    \"input_type\": %s,\n", pysrc.Quote(w.inputType))
	fmt.Fprintf(&b, "    \"min_length\": %d,\n", w.minLength)
	fmt.Fprintf(&b, "    \"max_length\": %d,\n", w.maxLength)
	fmt.Fprintf(&b, "    \"save\": %s,\n", pysrc.Bool(w.save && ctx.DatabaseEnabled))
	fmt.Fprintf(&b, "    \"retry_text\": %s,\n", pysrc.OptString(w.retryText))
	b.WriteString("}")
	return pysrc.Raw(b.String())
}

// WaitFor builds the waiting-state registration of a node's input spec.
func WaitFor(ctx *Context, n *domain.Node, in *domain.InputSpec, retryText string) []pysrc.Stmt {
	w := waitState{
		node:      n,
		variable:  in.TextVariable(n.ID),
		inputType: in.Validation(),
		minLength: in.MinLength,
		maxLength: in.MaxLength,
		save:      in.Persist(),
		retryText: retryText,
	}
	if in.WantsText() {
		w.types = append(w.types, "text")
	}
	for _, kind := range domain.MediaKinds() {
		if in.WantsMedia(kind) {
			w.types = append(w.types, string(kind))
			if w.variables == nil {
				w.variables = map[string]string{}
			}
			w.variables[string(kind)] = in.MediaVariable(n.ID, kind)
		}
	}

	var stmts []pysrc.Stmt
	next, ok := NextAfterInput(ctx, n, in.NextNodeAfterInput)
	if !ok {
		stmts = append(stmts, pysrc.Comment("the node configured after this input cannot be shown; the flow stops here"))
	}
	w.next = next
	return append(stmts, w.stmt(ctx))
}

// WaitForConditional registers a text answer collected by a conditional branch.
func WaitForConditional(ctx *Context, n *domain.Node, cm *domain.ConditionalMessage) []pysrc.Stmt {
	w := waitState{
		node:      n,
		types:     []string{"text"},
		variable:  conditionalVariable(n, cm),
		inputType: domain.InputText,
		save:      true,
	}
	var stmts []pysrc.Stmt
	next, ok := NextAfterInput(ctx, n, cm.NextNodeAfterInput)
	if !ok {
		stmts = append(stmts, pysrc.Comment("the node configured after this input cannot be shown; the flow stops here"))
	}
	w.next = next
	return append(stmts, w.stmt(ctx))
}

// ScreenTail emits what happens once a node's content is shown: wait for
// input, or follow the auto-transition.
func ScreenTail(ctx *Context, n *domain.Node) []pysrc.Stmt {
	if in := domain.InputOf(n); in != nil && in.Active() {
		retry := ""
		if d, ok := n.Data.(*domain.InputData); ok {
			retry = d.RetryText
		}
		return WaitFor(ctx, n, in, retry)
	}
	f := domain.FlowOf(n)
	if f == nil || f.AutoTarget() == "" {
		return nil
	}
	ref := domain.Reference{From: n.ID, To: f.AutoTarget(), Kind: domain.RefAutoTransition}
	return Transition(ctx, ref, "message")
}
