package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

// keyboardSpec describes one keyboard to render.
type keyboardSpec struct {
	owner   *domain.Node
	condID  string
	kind    string
	buttons []domain.Button
	oneTime bool
	resize  bool
	remove  bool
	columns int
}

func nodeKeyboard(n *domain.Node, c *domain.Content) keyboardSpec {
	resize := true
	if c.ResizeKeyboard != nil {
		resize = *c.ResizeKeyboard
	}
	return keyboardSpec{
		owner:   n,
		kind:    c.Keyboard(),
		buttons: c.Buttons,
		oneTime: c.OneTimeKeyboard,
		resize:  resize,
		remove:  c.RemoveKeyboard,
	}
}

func conditionalKeyboard(n *domain.Node, cm *domain.ConditionalMessage) keyboardSpec {
	return keyboardSpec{
		owner:   n,
		condID:  cm.ID,
		kind:    cm.Keyboard(),
		buttons: cm.Buttons,
		resize:  true,
	}
}

// Keyboard emits the statements building a reply markup and returns the
// expression to pass as reply_markup. The expression is "None" when the
// message has no keyboard.
func Keyboard(ctx *Context, spec keyboardSpec) ([]pysrc.Stmt, string) {
	switch spec.kind {
	case domain.KeyboardInline:
		return inlineKeyboard(ctx, spec)
	case domain.KeyboardReply:
		return replyKeyboard(ctx, spec)
	}
	if spec.remove {
		return nil, "ReplyKeyboardRemove()"
	}
	return nil, "None"
}

func inlineKeyboard(ctx *Context, spec keyboardSpec) ([]pysrc.Stmt, string) {
	stmts := []pysrc.Stmt{pysrc.Line("builder = InlineKeyboardBuilder()")}
	count := 0
	for i, b := range spec.buttons {
		switch b.EffectiveAction() {
		case domain.ActionURL:
			if strings.TrimSpace(b.URL) == "" {
				stmts = append(stmts, pysrc.Comment(fmt.Sprintf("button %q has no url", b.Text)))
				continue
			}
			stmts = append(stmts, pysrc.L("builder.button(text=%s, url=%s)", pysrc.Quote(b.Text), pysrc.Quote(b.URL)))
			count++
		case domain.ActionLocation, domain.ActionContact:
			stmts = append(stmts, pysrc.Comment(fmt.Sprintf("button %q: %s requests need a reply keyboard", b.Text, b.EffectiveAction())))
		default:
			bind, ok := ctx.Callbacks.Lookup(spec.owner.ID, spec.condID, i)
			if !ok {
				stmts = append(stmts, pysrc.Comment(fmt.Sprintf("button %q has no callback binding", b.Text)))
				continue
			}
			stmts = append(stmts, pysrc.L("builder.button(text=%s, callback_data=%s)", pysrc.Quote(b.Text), pysrc.Quote(bind.Key)))
			count++
		}
	}
	if count == 0 {
		return stmts[1:], "None"
	}
	stmts = append(stmts, pysrc.L("builder.adjust(%d)", columns(spec)))
	return stmts, "builder.as_markup()"
}

func replyKeyboard(ctx *Context, spec keyboardSpec) ([]pysrc.Stmt, string) {
	stmts := []pysrc.Stmt{pysrc.Line("builder = ReplyKeyboardBuilder()")}
	shares := map[string]string{}
	var shareOrder []string
	for _, b := range spec.buttons {
		switch b.EffectiveAction() {
		case domain.ActionLocation:
			stmts = append(stmts, pysrc.L("builder.button(text=%s, request_location=True)", pysrc.Quote(b.Text)))
			if to := shareTarget(ctx, spec.owner, b); to != "" {
				if _, ok := shares["location"]; !ok {
					shareOrder = append(shareOrder, "location")
				}
				shares["location"] = to
			}
		case domain.ActionContact:
			stmts = append(stmts, pysrc.L("builder.button(text=%s, request_contact=True)", pysrc.Quote(b.Text)))
			if to := shareTarget(ctx, spec.owner, b); to != "" {
				if _, ok := shares["contact"]; !ok {
					shareOrder = append(shareOrder, "contact")
				}
				shares["contact"] = to
			}
		case domain.ActionURL:
			stmts = append(stmts, pysrc.Comment(fmt.Sprintf("button %q: url buttons need an inline keyboard", b.Text)))
		default:
			stmts = append(stmts, pysrc.L("builder.button(text=%s)", pysrc.Quote(b.Text)))
		}
	}
	for _, kind := range shareOrder {
		stmts = append(stmts, pysrc.L("app.pending_shares.setdefault(user_id, {})[%s] = %s", pysrc.Quote(kind), pysrc.Quote(shares[kind])))
	}
	stmts = append(stmts, pysrc.L("builder.adjust(%d)", columns(spec)))
	markup := fmt.Sprintf("builder.as_markup(resize_keyboard=%s, one_time_keyboard=%s)", pysrc.Bool(spec.resize), pysrc.Bool(spec.oneTime))
	return stmts, markup
}

// shareTarget resolves where a location or contact share continues.
func shareTarget(ctx *Context, owner *domain.Node, b domain.Button) string {
	if strings.TrimSpace(b.Target) == "" {
		return ""
	}
	to, ok := ctx.Resolution.Target(domain.Reference{From: owner.ID, To: b.Target, Kind: domain.RefButton})
	if !ok || !ctx.Resolution.Navigable(to) {
		return ""
	}
	return to
}

// columns lays short labels out two per row.
func columns(spec keyboardSpec) int {
	if spec.columns > 0 {
		return spec.columns
	}
	if len(spec.buttons) < 4 {
		return 1
	}
	for _, b := range spec.buttons {
		if len([]rune(b.Text)) > 16 {
			return 1
		}
	}
	return 2
}
