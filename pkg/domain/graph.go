package domain

import "strings"

// Graph is the immutable compiler input: nodes in declaration order,
// the canvas connections and the group definitions.
type Graph struct {
	Nodes       []Node       `json:"nodes" validate:"dive"`
	Connections []Connection `json:"connections,omitempty"`
	Groups      []BotGroup   `json:"groups,omitempty"`
}

// Node returns the first node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Index maps node ids to their position in Nodes. The first declaration wins.
func (g *Graph) Index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, seen := idx[n.ID]; !seen {
			idx[n.ID] = i
		}
	}
	return idx
}

// GroupFor returns the first group listing nodeID.
func (g *Graph) GroupFor(nodeID string) (*BotGroup, bool) {
	for i := range g.Groups {
		if g.Groups[i].Contains(nodeID) {
			return &g.Groups[i], true
		}
	}
	return nil, false
}

// ResolveGroup looks a group up by id or by name.
func (g *Graph) ResolveGroup(ref string) (*BotGroup, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	for i := range g.Groups {
		if g.Groups[i].ID == ref || strings.EqualFold(g.Groups[i].Name, ref) {
			return &g.Groups[i], true
		}
	}
	return nil, false
}

// TargetChat returns the chat id a node is restricted to, or "".
// An explicit targetGroupId may be a raw chat id or a group reference.
func (g *Graph) TargetChat(n *Node) string {
	if t := TriggerOf(n); t != nil && strings.TrimSpace(t.TargetGroupID) != "" {
		ref := strings.TrimSpace(t.TargetGroupID)
		if grp, ok := g.ResolveGroup(ref); ok && grp.ChatID != "" {
			return grp.ChatID
		}
		return ref
	}
	if grp, ok := g.GroupFor(n.ID); ok {
		return grp.ChatID
	}
	return ""
}

// ReferenceKind classifies an edge of the control-flow graph.
type ReferenceKind string

const (
	RefButton            ReferenceKind = "button"
	RefCommandButton     ReferenceKind = "command_button"
	RefAutoTransition    ReferenceKind = "auto_transition"
	RefConditionalButton ReferenceKind = "conditional_button"
	RefConditionalTarget ReferenceKind = "conditional_target"
	RefInputNext         ReferenceKind = "input_next"
)

// Reference is one control-flow edge leaving a node.
type Reference struct {
	From string        `json:"from"`
	To   string        `json:"to"`
	Kind ReferenceKind `json:"kind"`
}

// OutgoingReferences enumerates the control-flow edges of a node in a stable order:
// buttons, conditional messages, input continuation, auto-transition.
func OutgoingReferences(n *Node) []Reference {
	var refs []Reference
	add := func(to string, kind ReferenceKind) {
		if to = strings.TrimSpace(to); to != "" {
			refs = append(refs, Reference{From: n.ID, To: to, Kind: kind})
		}
	}

	if c := ContentOf(n); c != nil {
		for _, b := range c.Buttons {
			if !b.Navigates() {
				continue
			}
			if b.EffectiveAction() == ActionCommand {
				add(b.Target, RefCommandButton)
			} else {
				add(b.Target, RefButton)
			}
		}
	}
	if conds := ConditionsOf(n); conds != nil && conds.EnableConditionalMessages {
		for _, cm := range conds.ConditionalMessages {
			for _, b := range cm.Buttons {
				if b.Navigates() {
					add(b.Target, RefConditionalButton)
				}
			}
			add(cm.NextNodeAfterInput, RefInputNext)
			add(cm.TargetNodeID, RefConditionalTarget)
		}
	}
	if in := InputOf(n); in != nil && in.Active() {
		add(in.NextNodeAfterInput, RefInputNext)
	}
	if f := FlowOf(n); f != nil {
		add(f.AutoTarget(), RefAutoTransition)
	}
	return refs
}

var defaultCommands = map[NodeType]string{
	NodeTypeStart:         "start",
	NodeTypePinMessage:    "pin",
	NodeTypeUnpinMessage:  "unpin",
	NodeTypeDeleteMessage: "del",
	NodeTypeBanUser:       "ban",
	NodeTypeUnbanUser:     "unban",
	NodeTypeMuteUser:      "mute",
	NodeTypeUnmuteUser:    "unmute",
	NodeTypeKickUser:      "kick",
	NodeTypePromoteUser:   "promote",
	NodeTypeDemoteUser:    "demote",
	NodeTypeAdminRights:   "admin_rights",
}

// CommandOf returns the slash command (without "/") that triggers a node, or "".
// Start and administrative nodes fall back to a per-type default.
func CommandOf(n *Node) string {
	if t := TriggerOf(n); t != nil {
		if name := t.CommandName(); name != "" {
			return name
		}
	}
	return defaultCommands[n.Type]
}
