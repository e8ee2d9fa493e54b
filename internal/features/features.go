// Package features holds the pure detectors that decide which optional
// sections of the generated program are needed. Every detector is safe on
// nil or empty input and independent of the others.
package features

import (
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/botsmith/pkg/domain"
)

// Detector is a predicate over the emitted nodes.
type Detector func([]domain.Node) bool

func anyNode(nodes []domain.Node, pred func(*domain.Node) bool) bool {
	for i := range nodes {
		n := &nodes[i]
		if n.DecodeErr != nil || n.Data == nil {
			continue
		}
		if pred(n) {
			return true
		}
	}
	return false
}

func conditionals(n *domain.Node) []domain.ConditionalMessage {
	if c := domain.ConditionsOf(n); c != nil {
		return c.Active()
	}
	return nil
}

func buttons(n *domain.Node) []domain.Button {
	var out []domain.Button
	if c := domain.ContentOf(n); c != nil && c.Keyboard() != domain.KeyboardNone {
		out = append(out, c.Buttons...)
	}
	for _, cm := range conditionals(n) {
		if cm.Keyboard() != domain.KeyboardNone {
			out = append(out, cm.Buttons...)
		}
	}
	return out
}

// HasInputCollection reports whether any node waits for a user answer.
func HasInputCollection(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		if in := domain.InputOf(n); in != nil && in.Active() {
			return true
		}
		for _, cm := range conditionals(n) {
			if cm.CollectUserInput {
				return true
			}
		}
		return false
	})
}

// HasTextInput reports whether any node waits for a free-text answer.
func HasTextInput(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		if in := domain.InputOf(n); in != nil && in.WantsText() {
			return true
		}
		for _, cm := range conditionals(n) {
			if cm.CollectUserInput {
				return true
			}
		}
		return false
	})
}

// HasMediaInput reports whether any node waits for the given media kind.
func HasMediaInput(nodes []domain.Node, kind domain.MediaKind) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		in := domain.InputOf(n)
		return in != nil && in.WantsMedia(kind)
	})
}

// HasPhotoInput reports whether any node waits for a photo. Photos are the
// only kind registered with the media subsystem.
func HasPhotoInput(nodes []domain.Node) bool {
	return HasMediaInput(nodes, domain.MediaPhoto)
}

// HasAnyMediaInput reports whether any node waits for any media kind.
func HasAnyMediaInput(nodes []domain.Node) bool {
	for _, k := range domain.MediaKinds() {
		if HasMediaInput(nodes, k) {
			return true
		}
	}
	return false
}

// HasMediaNodes reports whether any node sends a media file.
func HasMediaNodes(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool { return n.Type.IsMedia() })
}

// HasAutoTransitions reports whether any node chains to another automatically.
func HasAutoTransitions(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		f := domain.FlowOf(n)
		return f != nil && f.AutoTarget() != ""
	})
}

// HasConditionalMessages reports whether any node evaluates conditions at runtime.
func HasConditionalMessages(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool { return len(conditionals(n)) > 0 })
}

// HasConditionalButtons reports whether any conditional message carries buttons.
func HasConditionalButtons(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		for _, cm := range conditionals(n) {
			if len(cm.Buttons) > 0 && cm.Keyboard() != domain.KeyboardNone {
				return true
			}
		}
		return false
	})
}

// HasFirstTimeConditions reports whether any condition distinguishes new users.
func HasFirstTimeConditions(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		for _, cm := range conditionals(n) {
			if cm.Condition == domain.CondFirstTime || cm.Condition == domain.CondReturningUser {
				return true
			}
		}
		return false
	})
}

func hasKeyboard(nodes []domain.Node, kind string) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		if c := domain.ContentOf(n); c != nil && c.Keyboard() == kind {
			return true
		}
		for _, cm := range conditionals(n) {
			if cm.Keyboard() == kind {
				return true
			}
		}
		return false
	})
}

// HasInlineButtons reports whether any node shows an inline keyboard.
func HasInlineButtons(nodes []domain.Node) bool {
	return hasKeyboard(nodes, domain.KeyboardInline)
}

// HasReplyButtons reports whether any node shows a reply keyboard.
func HasReplyButtons(nodes []domain.Node) bool {
	return hasKeyboard(nodes, domain.KeyboardReply)
}

// HasKeyboardRemoval reports whether any node explicitly hides the reply keyboard.
func HasKeyboardRemoval(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		c := domain.ContentOf(n)
		return c != nil && c.RemoveKeyboard
	})
}

// HasLocationFeatures reports whether the bot sends or requests locations.
func HasLocationFeatures(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		if n.Type == domain.NodeTypeLocation {
			return true
		}
		for _, b := range buttons(n) {
			if b.EffectiveAction() == domain.ActionLocation {
				return true
			}
		}
		return false
	})
}

// HasLocationRequests reports whether any reply keyboard asks for the user's location.
func HasLocationRequests(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		for _, b := range buttons(n) {
			if b.EffectiveAction() == domain.ActionLocation {
				return true
			}
		}
		return false
	})
}

// HasMapLinks reports whether any location node is described by a map URL.
func HasMapLinks(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		d, ok := n.Data.(*domain.LocationData)
		return ok && strings.TrimSpace(d.MapURL) != ""
	})
}

// HasContactFeatures reports whether the bot sends or requests contacts.
func HasContactFeatures(nodes []domain.Node) bool {
	return hasType(nodes, domain.NodeTypeContact) || HasContactRequests(nodes)
}

func hasType(nodes []domain.Node, t domain.NodeType) bool {
	return anyNode(nodes, func(n *domain.Node) bool { return n.Type == t })
}

// HasContactRequests reports whether any node asks the user to share a phone number.
func HasContactRequests(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		if d, ok := n.Data.(*domain.ContactData); ok && d.RequestContact {
			return true
		}
		for _, b := range buttons(n) {
			if b.EffectiveAction() == domain.ActionContact {
				return true
			}
		}
		return false
	})
}

// HasRichFormatting reports whether any node or conditional message uses HTML
// or Markdown, case-insensitively, or sets markdown: true.
func HasRichFormatting(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		if c := domain.ContentOf(n); c != nil && c.ParseMode() != "" {
			return true
		}
		for _, cm := range conditionals(n) {
			if cm.ParseMode() != "" {
				return true
			}
		}
		return false
	})
}

// HasUserAdminActions reports whether the bot bans, mutes or promotes users.
func HasUserAdminActions(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool { return n.Type.IsUserAdmin() })
}

// HasMessageModeration reports whether the bot pins, unpins or deletes messages.
func HasMessageModeration(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool { return n.Type.IsModeration() })
}

// HasTimedRestrictions reports whether any admin action has a duration.
func HasTimedRestrictions(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		d, ok := n.Data.(*domain.UserAdminData)
		return ok && d.Duration > 0
	})
}

// HasSynonyms reports whether any node is triggered by plain-text synonyms.
func HasSynonyms(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		t := domain.TriggerOf(n)
		return t != nil && len(cleanSynonyms(t.Synonyms)) > 0
	})
}

// HasAdminOnlyCommands reports whether any command is restricted to chat admins.
func HasAdminOnlyCommands(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		t := domain.TriggerOf(n)
		return t != nil && t.AdminOnly
	})
}

// HasPrivateOnlyCommands reports whether any command only works in private chats.
func HasPrivateOnlyCommands(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		t := domain.TriggerOf(n)
		return t != nil && t.IsPrivateOnly
	})
}

// HasMenuCommands reports whether any command is registered in the bot menu.
func HasMenuCommands(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		t := domain.TriggerOf(n)
		return t != nil && t.ShowInMenu && domain.CommandOf(n) != ""
	})
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func texts(n *domain.Node) []string {
	var out []string
	if c := domain.ContentOf(n); c != nil {
		out = append(out, c.MessageText)
	}
	switch d := n.Data.(type) {
	case *domain.InputData:
		out = append(out, d.InputPrompt)
	case *domain.PollData:
		out = append(out, d.Question)
	case *domain.MediaData:
		out = append(out, d.DocumentName)
	}
	for _, cm := range conditionals(n) {
		out = append(out, cm.MessageText)
	}
	return out
}

// HasVariableSubstitution reports whether any text references {variable}.
func HasVariableSubstitution(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		for _, s := range texts(n) {
			if placeholder.MatchString(s) {
				return true
			}
		}
		return false
	})
}

// HasButtonEffects reports whether any button hides itself, records its
// text as an answer or sets a variable.
func HasButtonEffects(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		for _, b := range buttons(n) {
			if b.HideAfterClick || b.EffectiveAction() == domain.ActionSetVariable {
				return true
			}
		}
		in := domain.InputOf(n)
		if in == nil || !in.Active() {
			return false
		}
		for _, b := range buttons(n) {
			if !b.SkipDataCollection && b.NeedsCallback() {
				return true
			}
		}
		return false
	})
}

// HasGroupTargeting reports whether any handler is limited to one chat.
func HasGroupTargeting(nodes []domain.Node) bool {
	return anyNode(nodes, func(n *domain.Node) bool {
		t := domain.TriggerOf(n)
		return t != nil && strings.TrimSpace(t.TargetGroupID) != ""
	})
}

// CollectVariables returns every variable name the bot reads or writes, sorted.
func CollectVariables(nodes []domain.Node) []string {
	set := make(map[string]bool)
	for i := range nodes {
		n := &nodes[i]
		if n.DecodeErr != nil || n.Data == nil {
			continue
		}
		if in := domain.InputOf(n); in != nil && in.Active() {
			if in.WantsText() {
				set[in.TextVariable(n.ID)] = true
			}
			for _, k := range domain.MediaKinds() {
				if in.WantsMedia(k) {
					set[in.MediaVariable(n.ID, k)] = true
				}
			}
		}
		for _, cm := range conditionals(n) {
			for _, v := range cm.Variables() {
				set[v] = true
			}
			if cm.CollectUserInput && cm.InputVariable != "" {
				set[cm.InputVariable] = true
			}
		}
		for _, b := range buttons(n) {
			if b.EffectiveAction() == domain.ActionSetVariable && b.Variable != "" {
				set[b.Variable] = true
			}
		}
		for _, s := range texts(n) {
			for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
				set[m[1]] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func cleanSynonyms(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Synonyms returns the trimmed, non-empty synonyms of a trigger.
func Synonyms(t *domain.Trigger) []string {
	if t == nil {
		return nil
	}
	return cleanSynonyms(t.Synonyms)
}

// Placeholders returns the {variable} names used in s, in order of appearance.
func Placeholders(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}
