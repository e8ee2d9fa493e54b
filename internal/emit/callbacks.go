package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/cespare/xxhash/v2"
)

// MaxCallbackData is Telegram's limit for callback_data, in bytes.
const MaxCallbackData = 64

// Effect is a variable write performed when a button is pressed.
type Effect struct {
	Variable string
	Value    string
}

// Binding ties one emitted button to the handler that answers it.
type Binding struct {
	// Key is the callback data for inline buttons and the text for reply buttons.
	Key    string
	Owner  string
	CondID string
	Index  int
	Button domain.Button
	Reply  bool
	// Target is the navigable node the press leads to; empty means a no-op answer.
	Target string
	Effect *Effect
	// Shadowed reply buttons share their text with an earlier button
	// leading elsewhere; the earlier handler answers them.
	Shadowed bool
}

// Group is every inline binding answered by one handler.
type Group struct {
	Target   string
	Keys     []string
	Bindings []*Binding
}

type bindingKey struct {
	owner  string
	condID string
	index  int
}

// Callbacks is the registry of button bindings for one compile.
// It is built before emission, read concurrently by the emitters and
// pruned with Drop once every node has been emitted.
type Callbacks struct {
	inline   []*Binding
	reply    []*Binding
	allReply []*Binding
	byPos    map[bindingKey]*Binding
	used     map[string]bool
	texts    map[string]*Binding
}

// DefaultCallbackData derives the callback data of a button that has no explicit id.
func DefaultCallbackData(owner, condID string, index int) string {
	if condID != "" {
		return fmt.Sprintf("%s_%s_btn_%d", owner, condID, index)
	}
	return fmt.Sprintf("%s_btn_%d", owner, index)
}

// fitCallbackData hashes data that exceeds Telegram's limit.
func fitCallbackData(data string) string {
	if len(data) <= MaxCallbackData {
		return data
	}
	return "cb_" + strconv.FormatUint(xxhash.Sum64String(data), 16)
}

// BuildCallbacks walks every emitted keyboard in declaration order and
// assigns each button its callback data or reply text.
func BuildCallbacks(res *resolver.Result) (*Callbacks, domain.Diagnostics) {
	c := &Callbacks{
		byPos: make(map[bindingKey]*Binding),
		used:  make(map[string]bool),
		texts: make(map[string]*Binding),
	}
	var diags domain.Diagnostics

	for _, id := range res.Order {
		n, ok := res.Node(id)
		if !ok || n.DecodeErr != nil || !n.Type.Navigable() {
			continue
		}
		textVar := ""
		if in := domain.InputOf(n); in != nil && in.WantsText() {
			textVar = in.TextVariable(n.ID)
		}
		if content := domain.ContentOf(n); content != nil && !replacesKeyboard(n) {
			diags = append(diags, c.addKeyboard(res, n, "", content.Keyboard(), content.Buttons, textVar)...)
		}
		if conds := domain.ConditionsOf(n); conds != nil {
			for _, cm := range conds.Active() {
				v := ""
				if cm.CollectUserInput {
					v = conditionalVariable(n, &cm)
				}
				diags = append(diags, c.addKeyboard(res, n, cm.ID, cm.Keyboard(), cm.Buttons, v)...)
			}
		}
	}
	return c, diags
}

// replacesKeyboard reports whether the node shows a keyboard of its own
// instead of its content buttons.
func replacesKeyboard(n *domain.Node) bool {
	d, ok := n.Data.(*domain.ContactData)
	return ok && d.RequestContact
}

func conditionalVariable(n *domain.Node, cm *domain.ConditionalMessage) string {
	if v := strings.TrimSpace(cm.InputVariable); v != "" {
		return v
	}
	return "response_" + n.ID
}

func (c *Callbacks) addKeyboard(res *resolver.Result, n *domain.Node, condID, keyboard string, buttons []domain.Button, textVar string) domain.Diagnostics {
	if keyboard == domain.KeyboardNone {
		return nil
	}
	var diags domain.Diagnostics
	for i, b := range buttons {
		if !b.NeedsCallback() {
			continue
		}
		bind := &Binding{
			Owner:  n.ID,
			CondID: condID,
			Index:  i,
			Button: b,
			Reply:  keyboard == domain.KeyboardReply,
			Target: bindingTarget(res, n, b),
			Effect: bindingEffect(b, textVar),
		}
		if bind.Reply {
			diags = append(diags, c.addReply(bind)...)
		} else {
			diags = append(diags, c.addInline(bind)...)
		}
		c.byPos[bindingKey{n.ID, condID, i}] = bind
	}
	return diags
}

func bindingTarget(res *resolver.Result, n *domain.Node, b domain.Button) string {
	kind := domain.RefButton
	if b.EffectiveAction() == domain.ActionCommand {
		kind = domain.RefCommandButton
	}
	if strings.TrimSpace(b.Target) == "" {
		if b.EffectiveAction() == domain.ActionSetVariable {
			return n.ID
		}
		return ""
	}
	to, ok := res.Target(domain.Reference{From: n.ID, To: b.Target, Kind: kind})
	if !ok || !res.Navigable(to) {
		return ""
	}
	return to
}

func bindingEffect(b domain.Button, textVar string) *Effect {
	if b.EffectiveAction() == domain.ActionSetVariable {
		if v := strings.TrimSpace(b.Variable); v != "" {
			return &Effect{Variable: v, Value: b.Value}
		}
		return nil
	}
	if textVar != "" && !b.SkipDataCollection {
		return &Effect{Variable: textVar, Value: b.Text}
	}
	return nil
}

func (c *Callbacks) addInline(bind *Binding) domain.Diagnostics {
	base := strings.TrimSpace(bind.Button.ID)
	if base == "" {
		base = DefaultCallbackData(bind.Owner, bind.CondID, bind.Index)
	}
	data := fitCallbackData(base)

	var diags domain.Diagnostics
	if c.used[data] {
		original := data
		for i := 2; c.used[data]; i++ {
			data = fitCallbackData(base + "_" + strconv.Itoa(i))
		}
		diags = append(diags, domain.Diagnostic{
			Severity: domain.SeverityWarning,
			Kind:     domain.DiagCallbackConflict,
			NodeID:   bind.Owner,
			Target:   bind.Target,
			Message:  fmt.Sprintf("button %q reuses callback data %q; renamed to %q", bind.Button.Text, original, data),
		})
	}
	c.used[data] = true
	bind.Key = data
	c.inline = append(c.inline, bind)
	return diags
}

func (c *Callbacks) addReply(bind *Binding) domain.Diagnostics {
	bind.Key = bind.Button.Text
	c.allReply = append(c.allReply, bind)
	first, seen := c.texts[bind.Key]
	if !seen {
		c.texts[bind.Key] = bind
		c.reply = append(c.reply, bind)
		return nil
	}
	if first.Target == bind.Target && first.Effect == nil && bind.Effect == nil {
		return nil
	}
	bind.Shadowed = true
	if first.Target == bind.Target {
		return nil
	}
	return domain.Diagnostics{{
		Severity: domain.SeverityWarning,
		Kind:     domain.DiagCallbackConflict,
		NodeID:   bind.Owner,
		Target:   bind.Target,
		Message:  fmt.Sprintf("reply button %q is already bound to %q by node %q; the first declaration wins", bind.Key, first.Target, first.Owner),
	}}
}

// Drop removes the bindings owned by the given nodes, whose keyboards were
// never emitted. A reply text first declared by a dropped node passes to the
// next button carrying it. Renamed callback data keeps its suffix.
func (c *Callbacks) Drop(owners map[string]bool) {
	if len(owners) == 0 {
		return
	}
	var inline []*Binding
	for _, b := range c.inline {
		if owners[b.Owner] {
			delete(c.byPos, bindingKey{b.Owner, b.CondID, b.Index})
			continue
		}
		inline = append(inline, b)
	}
	c.inline = inline

	var all, reply []*Binding
	c.texts = make(map[string]*Binding)
	for _, b := range c.allReply {
		if owners[b.Owner] {
			delete(c.byPos, bindingKey{b.Owner, b.CondID, b.Index})
			continue
		}
		all = append(all, b)
		if _, seen := c.texts[b.Key]; !seen {
			b.Shadowed = false
			c.texts[b.Key] = b
			reply = append(reply, b)
		}
	}
	c.allReply, c.reply = all, reply
}

// Lookup returns the binding of the button at index in the owner's keyboard
// (or in the conditional message condID).
func (c *Callbacks) Lookup(owner, condID string, index int) (*Binding, bool) {
	b, ok := c.byPos[bindingKey{owner, condID, index}]
	return b, ok
}

// Inline returns the inline bindings in declaration order.
func (c *Callbacks) Inline() []*Binding {
	return c.inline
}

// Reply returns the first binding of each reply text, in declaration order.
func (c *Callbacks) Reply() []*Binding {
	return c.reply
}

// Groups partitions the inline bindings by target, in order of first
// appearance. Bindings without a target share the group with an empty Target.
func (c *Callbacks) Groups() []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, b := range c.inline {
		i, ok := idx[b.Target]
		if !ok {
			i = len(groups)
			idx[b.Target] = i
			groups = append(groups, Group{Target: b.Target})
		}
		groups[i].Keys = append(groups[i].Keys, b.Key)
		groups[i].Bindings = append(groups[i].Bindings, b)
	}
	return groups
}

// Effects returns the bindings that write a variable, inline first.
func (c *Callbacks) Effects() []*Binding {
	var out []*Binding
	for _, b := range c.inline {
		if b.Effect != nil {
			out = append(out, b)
		}
	}
	for _, b := range c.reply {
		if b.Effect != nil {
			out = append(out, b)
		}
	}
	return out
}

// Hidden returns the inline callback data of buttons removed after a click.
func (c *Callbacks) Hidden() []string {
	var out []string
	for _, b := range c.inline {
		if b.Button.HideAfterClick {
			out = append(out, b.Key)
		}
	}
	return out
}
