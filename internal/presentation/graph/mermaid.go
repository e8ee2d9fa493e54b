package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the bot's control flow.
// It applies semantic styling:
// - Entry points (start, command): ((Circle))
// - Input collection: [/Parallelogram/]
// - Media: [[Subroutine]]
// - Administration and moderation: {{Hexagon}}
// - Default: [Rectangle]
//
// When res is not nil, unreachable nodes, dangling references and edges cut
// to break auto-transition cycles are styled as well.
func GenerateMermaid(g *domain.Graph, res *resolver.Result) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if g == nil {
		return sb.String()
	}

	grouped := make(map[string]bool)
	for _, grp := range g.Groups {
		title := grp.Name
		if title == "" {
			title = grp.ID
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID("group_"+grp.ID), escapeLabel(title))
		for _, id := range grp.NodeIDs {
			if n, ok := g.Node(id); ok && !grouped[id] {
				grouped[id] = true
				sb.WriteString("    " + nodeLine(n))
			}
		}
		sb.WriteString("    end\n")
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !grouped[n.ID] {
			sb.WriteString(nodeLine(n))
		}
	}

	missing := make(map[string]bool)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		for _, ref := range domain.OutgoingReferences(n) {
			to := ref.To
			if res != nil {
				if target, ok := res.Target(ref); ok {
					to = target
				} else {
					missing[to] = true
				}
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(n.ID), arrow(ref, res), sanitizeMermaidID(to))
		}
	}

	if res == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Resolution Styles\n")
	sb.WriteString("    classDef unreachable fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 4,color:#616161;\n")
	sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
	for i := range g.Nodes {
		if id := g.Nodes[i].ID; !res.Reachable[id] {
			fmt.Fprintf(&sb, "    class %s unreachable;\n", sanitizeMermaidID(id))
		}
	}
	for _, ref := range res.Dangling {
		if missing[ref.To] {
			fmt.Fprintf(&sb, "    class %s missing;\n", sanitizeMermaidID(ref.To))
			delete(missing, ref.To)
		}
	}
	return sb.String()
}

func nodeLine(n *domain.Node) string {
	opener, closer := "[", "]"
	switch {
	case n.Type == domain.NodeTypeStart || n.Type == domain.NodeTypeCommand:
		opener, closer = "((", "))"
	case n.Type == domain.NodeTypeInput:
		opener, closer = "[/", "/]"
	case n.Type.IsMedia():
		opener, closer = "[[", "]]"
	case n.Type.IsUserAdmin() || n.Type.IsModeration():
		opener, closer = "{{", "}}"
	}

	label := n.ID
	if cmd := domain.CommandOf(n); cmd != "" {
		label = fmt.Sprintf("%s <br/> /%s", n.ID, cmd)
	}
	return fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(n.ID), opener, escapeLabel(label), closer)
}

func arrow(ref domain.Reference, res *resolver.Result) string {
	if res != nil && res.IsCut(ref) {
		return `-. "cut" .->`
	}
	switch ref.Kind {
	case domain.RefAutoTransition:
		return "-.->"
	case domain.RefInputNext:
		return `-- "input" -->`
	case domain.RefConditionalButton, domain.RefConditionalTarget:
		return `-- "if" -->`
	case domain.RefCommandButton:
		return `-- "cmd" -->`
	}
	return "-->"
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
