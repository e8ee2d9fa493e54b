package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/features"
	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

// TextExpr returns the Python expression producing a message text,
// substituting {variable} placeholders from the user's stored data.
func TextExpr(text string) string {
	if len(features.Placeholders(text)) == 0 {
		return pysrc.Quote(text)
	}
	return fmt.Sprintf("format_text(%s, app.vars(user_id))", pysrc.Quote(text))
}

// parseModeArg returns the ", parse_mode=..." argument for a resolved mode.
func parseModeArg(mode string) string {
	switch mode {
	case "html":
		return ", parse_mode=ParseMode.HTML"
	case "markdown":
		return ", parse_mode=ParseMode.MARKDOWN"
	}
	return ""
}

func markupArg(markup string) string {
	if markup == "None" {
		return ""
	}
	return ", reply_markup=" + markup
}

// SendText emits a text message with an optional keyboard.
func SendText(ctx *Context, text, parseMode string, kb keyboardSpec) []pysrc.Stmt {
	stmts, markup := Keyboard(ctx, kb)
	if strings.TrimSpace(text) == "" {
		if markup == "None" {
			return stmts
		}
		// Telegram refuses empty messages; a keyboard still needs a carrier text.
		text = "..."
	}
	stmts = append(stmts, pysrc.L("text = %s", TextExpr(text)))
	stmts = append(stmts, pysrc.L("await message.answer(text%s%s)", markupArg(markup), parseModeArg(parseMode)))
	return stmts
}

// ConditionExpr translates one conditional message into a Python boolean expression.
func ConditionExpr(cm *domain.ConditionalMessage) string {
	switch cm.Condition {
	case domain.CondFirstTime:
		return "user_id not in app.known_users"
	case domain.CondReturningUser:
		return "user_id in app.known_users"
	}

	vars := cm.Variables()
	if len(vars) == 0 {
		return "False"
	}
	parts := make([]string, 0, len(vars))
	for _, v := range vars {
		q := pysrc.Quote(v)
		switch cm.Condition {
		case domain.CondUserDataExists:
			parts = append(parts, fmt.Sprintf("variables.get(%s) not in (None, \"\")", q))
		case domain.CondUserDataNotExists:
			parts = append(parts, fmt.Sprintf("variables.get(%s) in (None, \"\")", q))
		case domain.CondUserDataEquals:
			parts = append(parts, fmt.Sprintf("str(variables.get(%s, \"\")) == %s", q, pysrc.Quote(cm.ExpectedValue)))
		case domain.CondUserDataContains:
			parts = append(parts, fmt.Sprintf("%s in str(variables.get(%s, \"\"))", pysrc.Quote(cm.ExpectedValue), q))
		default:
			parts = append(parts, "False")
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " "+cm.Operator()+" ") + ")"
}

// ConditionalChain emits the node's alternative messages as an if/elif chain
// in ascending priority. A matching branch shows its message, then either
// waits for input, routes to its target or returns; when no branch matches,
// execution falls through to the node's default content.
func ConditionalChain(ctx *Context, n *domain.Node) []pysrc.Stmt {
	conds := domain.ConditionsOf(n)
	if conds == nil {
		return nil
	}
	active := conds.Active()
	if len(active) == 0 {
		return nil
	}

	chain := &pysrc.If{}
	for i := range active {
		cm := &active[i]
		var body []pysrc.Stmt
		if ctx.CommentsEnabled {
			body = append(body, pysrc.Comment(fmt.Sprintf("%s (priority %d)", cm.Condition, cm.Priority)))
		}
		if strings.TrimSpace(cm.MessageText) != "" || len(cm.Buttons) > 0 {
			body = append(body, SendText(ctx, cm.MessageText, cm.ParseMode(), conditionalKeyboard(n, cm))...)
		}
		switch {
		case strings.TrimSpace(cm.TargetNodeID) != "":
			ref := domain.Reference{From: n.ID, To: cm.TargetNodeID, Kind: domain.RefConditionalTarget}
			body = append(body, Transition(ctx, ref, "message")...)
		case cm.CollectUserInput:
			body = append(body, WaitForConditional(ctx, n, cm)...)
		}
		body = append(body, pysrc.Line("return"))
		chain.Branches = append(chain.Branches, pysrc.Branch{Cond: ConditionExpr(cm), Body: body})
	}
	return []pysrc.Stmt{pysrc.Line("variables = app.vars(user_id)"), chain}
}

// ContentBody emits a node's conditional chain followed by its default message.
func ContentBody(ctx *Context, n *domain.Node, c *domain.Content) []pysrc.Stmt {
	body := ConditionalChain(ctx, n)
	return append(body, SendText(ctx, c.MessageText, c.ParseMode(), nodeKeyboard(n, c))...)
}

// ScreenDef wraps a screen body into its show_ function.
func ScreenDef(ctx *Context, n *domain.Node, body []pysrc.Stmt) *pysrc.Block {
	var stmts []pysrc.Stmt
	if ctx.CommentsEnabled {
		stmts = append(stmts, pysrc.Comment(fmt.Sprintf("%s node %q", n.Type, n.ID)))
	}
	stmts = append(stmts, body...)
	return pysrc.Def(ctx.Names[n.ID].Screen, "message: Message, app: AppState, user_id: int", stmts...)
}

// Guard wraps a handler body so any exception is logged and answered with
// the generic failure notice instead of reaching the dispatcher.
func Guard(reply string, body ...pysrc.Stmt) *pysrc.Try {
	return pysrc.NewTry(body...).Catch("Exception",
		pysrc.L("logger.exception(\"handler failed\")"),
		pysrc.L("await %s(GENERIC_ERROR_TEXT)", reply),
	)
}
