package domain

import "strings"

// ButtonAction is what happens when a user presses a button.
type ButtonAction string

const (
	ActionGoto        ButtonAction = "goto"
	ActionCommand     ButtonAction = "command"
	ActionURL         ButtonAction = "url"
	ActionSetVariable ButtonAction = "setVariable"
	ActionLocation    ButtonAction = "location"
	ActionContact     ButtonAction = "contact"
)

// Button is a clickable element owned by a node's content or by a conditional message.
type Button struct {
	ID                 string       `json:"id,omitempty"`
	Text               string       `json:"text" validate:"required"`
	Action             ButtonAction `json:"action" validate:"omitempty,oneof=goto command url setVariable location contact"`
	Target             string       `json:"target,omitempty"`
	URL                string       `json:"url,omitempty" validate:"required_if=Action url"`
	HideAfterClick     bool         `json:"hideAfterClick,omitempty"`
	SkipDataCollection bool         `json:"skipDataCollection,omitempty"`
	Conditional        bool         `json:"conditional,omitempty"`

	// Variable and Value are used by setVariable buttons.
	Variable string `json:"variable,omitempty"`
	Value    string `json:"value,omitempty"`
}

// EffectiveAction returns the action, defaulting to goto.
func (b *Button) EffectiveAction() ButtonAction {
	if b.Action == "" {
		return ActionGoto
	}
	return b.Action
}

// Navigates reports whether pressing the button moves the user to another node.
func (b *Button) Navigates() bool {
	if b.EffectiveAction() == ActionURL {
		return false
	}
	return strings.TrimSpace(b.Target) != ""
}

// NeedsCallback reports whether the button produces a callback or text
// the bot has to react to. URL and share buttons are handled by the client.
func (b *Button) NeedsCallback() bool {
	switch b.EffectiveAction() {
	case ActionURL, ActionLocation, ActionContact:
		return false
	}
	return true
}

// Connection is an edge drawn on the canvas. It is advisory only:
// control flow is derived from buttons and transitions.
type Connection struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// BotGroup is a named Telegram chat and the nodes scoped to it.
type BotGroup struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	ChatID  string   `json:"chatId,omitempty"`
	NodeIDs []string `json:"nodeIds,omitempty"`
}

// Contains reports whether the group lists nodeID.
func (g *BotGroup) Contains(nodeID string) bool {
	for _, id := range g.NodeIDs {
		if id == nodeID {
			return true
		}
	}
	return false
}
