package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/botsmith/internal/features"
	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

const handlerParams = "message: Message, app: AppState"

// chatFilter restricts a handler to the node's target chat, if any.
func chatFilter(ctx *Context, n *domain.Node) string {
	chat := strings.TrimSpace(ctx.Graph.TargetChat(n))
	if chat == "" {
		return ""
	}
	if _, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return "F.chat.id == " + chat
	}
	return "F.chat.username == " + pysrc.Quote(strings.TrimPrefix(chat, "@"))
}

// commandFilters returns the aiogram filters of a node's command handler.
func commandFilters(ctx *Context, n *domain.Node) []string {
	var filters []string
	cmd := domain.CommandOf(n)
	if n.Type == domain.NodeTypeStart && (cmd == "" || cmd == "start") {
		filters = append(filters, "CommandStart()")
	} else {
		filters = append(filters, commandTrigger(cmd))
	}
	if t := domain.TriggerOf(n); t != nil && t.IsPrivateOnly {
		filters = append(filters, `F.chat.type == "private"`)
	}
	if f := chatFilter(ctx, n); f != "" {
		filters = append(filters, f)
	}
	return filters
}

// synonymFilters returns the filters of a node's plain-text synonym handler,
// or nil when the node has no synonyms.
func synonymFilters(ctx *Context, n *domain.Node) []string {
	syns := features.Synonyms(domain.TriggerOf(n))
	if len(syns) == 0 {
		return nil
	}
	filters := []string{fmt.Sprintf("F.text.func(lambda text: matches_synonym(text, %s))", pysrc.StrTuple(syns))}
	if t := domain.TriggerOf(n); t != nil && t.IsPrivateOnly {
		filters = append(filters, `F.chat.type == "private"`)
	}
	if f := chatFilter(ctx, n); f != "" {
		filters = append(filters, f)
	}
	return filters
}

// commandTrigger matches a command in any case; command names are stored in
// lower case.
func commandTrigger(cmd string) string {
	return fmt.Sprintf("Command(%s, ignore_case=True)", pysrc.Quote(cmd))
}

func adminGate(n *domain.Node) []pysrc.Stmt {
	t := domain.TriggerOf(n)
	if t == nil || !t.AdminOnly {
		return nil
	}
	return []pysrc.Stmt{
		pysrc.NewIf("not await is_chat_admin(message.bot, message.chat.id, user_id)",
			pysrc.Line(`await message.answer("This command is only available to chat administrators.")`),
			pysrc.Line("return"),
		),
	}
}

// ownsCommand reports whether the node is the one the command resolves to.
func ownsCommand(ctx *Context, n *domain.Node) bool {
	cmd := domain.CommandOf(n)
	return cmd != "" && ctx.Resolution.Commands[cmd] == n.ID
}

// EntryHandlers emits the command and synonym handlers that open a screen.
func EntryHandlers(ctx *Context, n *domain.Node) []pysrc.Stmt {
	names := ctx.Names[n.ID]
	body := func() []pysrc.Stmt {
		guarded := append(adminGate(n), GoTo(n.ID, "message"))
		return []pysrc.Stmt{
			pysrc.Line("user_id = message.from_user.id"),
			Guard("message.answer", guarded...),
		}
	}

	var out []pysrc.Stmt
	if ownsCommand(ctx, n) {
		def := pysrc.Def(names.Entry, handlerParams, body()...)
		out = append(out, def.Decorate(fmt.Sprintf("router.message(%s)", strings.Join(commandFilters(ctx, n), ", "))))
	}
	if filters := synonymFilters(ctx, n); filters != nil {
		def := pysrc.Def(names.Synonym, handlerParams, body()...)
		out = append(out, def.Decorate(fmt.Sprintf("router.message(%s)", strings.Join(filters, ", "))))
	}
	return out
}

// emitContentNode handles start, command, message and keyboard nodes.
func emitContentNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	content := domain.ContentOf(n)
	if content == nil {
		return nil, fmt.Errorf("%w: %T carries no message content", domain.ErrMalformedData, n.Data)
	}
	body := ContentBody(ctx, n, content)
	body = append(body, ScreenTail(ctx, n)...)
	return &Fragment{
		NodeID:   n.ID,
		Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
		Handlers: EntryHandlers(ctx, n),
	}, nil
}
