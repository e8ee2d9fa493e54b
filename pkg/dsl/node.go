package dsl

import (
	"fmt"

	"github.com/aretw0/botsmith/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
// Calling a setter the node type does not support records an error
// returned by Builder.Build.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
	err     error
}

func (n *NodeBuilder) fail(part string) *NodeBuilder {
	if n.err == nil {
		n.err = fmt.Errorf("node %q: %s nodes have no %s", n.node.ID, n.node.Type, part)
	}
	return n
}

func (n *NodeBuilder) trigger() *domain.Trigger {
	return domain.TriggerOf(&n.node)
}

func (n *NodeBuilder) content() *domain.Content {
	return domain.ContentOf(&n.node)
}

// Command sets the slash command that opens the node.
func (n *NodeBuilder) Command(cmd string) *NodeBuilder {
	t := n.trigger()
	if t == nil {
		return n.fail("command")
	}
	t.Command = cmd
	return n
}

// Describe sets the menu description and lists the command in the bot menu.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	t := n.trigger()
	if t == nil {
		return n.fail("menu entry")
	}
	t.Description = description
	t.ShowInMenu = true
	return n
}

// AdminOnly restricts the command to chat administrators.
func (n *NodeBuilder) AdminOnly() *NodeBuilder {
	t := n.trigger()
	if t == nil {
		return n.fail("command gate")
	}
	t.AdminOnly = true
	return n
}

// PrivateOnly restricts the command to private chats.
func (n *NodeBuilder) PrivateOnly() *NodeBuilder {
	t := n.trigger()
	if t == nil {
		return n.fail("command gate")
	}
	t.IsPrivateOnly = true
	return n
}

// Synonyms adds plain-text triggers.
func (n *NodeBuilder) Synonyms(words ...string) *NodeBuilder {
	t := n.trigger()
	if t == nil {
		return n.fail("synonyms")
	}
	t.Synonyms = append(t.Synonyms, words...)
	return n
}

// Text sets the message text.
func (n *NodeBuilder) Text(text string) *NodeBuilder {
	c := n.content()
	if c == nil {
		return n.fail("message text")
	}
	c.MessageText = text
	return n
}

// Format sets the parse mode ("html" or "markdown").
func (n *NodeBuilder) Format(mode string) *NodeBuilder {
	c := n.content()
	if c == nil {
		return n.fail("message text")
	}
	c.FormatMode = mode
	return n
}

// Keyboard sets the keyboard type ("inline", "reply" or "none").
func (n *NodeBuilder) Keyboard(kind string) *NodeBuilder {
	c := n.content()
	if c == nil {
		return n.fail("keyboard")
	}
	c.KeyboardType = kind
	return n
}

// Button adds a goto button.
func (n *NodeBuilder) Button(text, target string) *NodeBuilder {
	return n.AddButton(domain.Button{Text: text, Action: domain.ActionGoto, Target: target})
}

// AddButton adds a fully configured button.
func (n *NodeBuilder) AddButton(b domain.Button) *NodeBuilder {
	c := n.content()
	if c == nil {
		return n.fail("buttons")
	}
	c.Buttons = append(c.Buttons, b)
	return n
}

// Go enables the auto-transition to target.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	f := domain.FlowOf(&n.node)
	if f == nil {
		return n.fail("auto-transition")
	}
	f.EnableAutoTransition = true
	f.AutoTransitionTo = target
	return n
}

// inputSpec returns the node's own input settings. InputOf hands out a
// copy for input nodes, so those are reached directly.
func (n *NodeBuilder) inputSpec() *domain.InputSpec {
	if d, ok := n.node.Data.(*domain.InputData); ok {
		return &d.InputSpec
	}
	return domain.InputOf(&n.node)
}

// Ask waits for a text answer stored in variable, then continues to next.
func (n *NodeBuilder) Ask(variable, next string) *NodeBuilder {
	in := n.inputSpec()
	if in == nil {
		return n.fail("input collection")
	}
	in.CollectUserInput = true
	in.InputVariable = variable
	in.NextNodeAfterInput = next
	return n
}

// Validate constrains a text answer.
func (n *NodeBuilder) Validate(inputType string, minLength, maxLength int) *NodeBuilder {
	in := n.inputSpec()
	if in == nil {
		return n.fail("input validation")
	}
	in.InputType = inputType
	in.MinLength = minLength
	in.MaxLength = maxLength
	return n
}

// Media sets the file a media node sends. Telegram file ids work too.
func (n *NodeBuilder) Media(source string) *NodeBuilder {
	d, ok := n.node.Data.(*domain.MediaData)
	if !ok {
		return n.fail("media")
	}
	switch n.node.Type {
	case domain.NodeTypePhoto:
		d.ImageURL = source
	case domain.NodeTypeVideo:
		d.VideoURL = source
	case domain.NodeTypeAudio:
		d.AudioURL = source
	case domain.NodeTypeDocument:
		d.DocumentURL = source
	case domain.NodeTypeAnimation:
		d.AnimationURL = source
	case domain.NodeTypeSticker:
		d.StickerURL = source
	case domain.NodeTypeVoice:
		d.VoiceURL = source
	}
	return n
}

// When adds a conditional message.
func (n *NodeBuilder) When(cm domain.ConditionalMessage) *NodeBuilder {
	c := domain.ConditionsOf(&n.node)
	if c == nil {
		return n.fail("conditional messages")
	}
	c.EnableConditionalMessages = true
	c.ConditionalMessages = append(c.ConditionalMessages, cm)
	return n
}

// InGroup scopes the node's trigger to a declared group.
func (n *NodeBuilder) InGroup(groupID string) *NodeBuilder {
	t := n.trigger()
	if t == nil {
		return n.fail("group scope")
	}
	t.TargetGroupID = groupID
	return n
}

// Configure gives direct access to the typed node data for settings the
// fluent API does not cover.
func (n *NodeBuilder) Configure(fn func(d domain.NodeData)) *NodeBuilder {
	if n.node.Data != nil {
		fn(n.node.Data)
	}
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}

// Done returns to the graph builder.
func (n *NodeBuilder) Done() *Builder {
	return n.builder
}
