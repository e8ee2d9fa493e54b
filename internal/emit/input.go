package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

func emitInputNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.InputData)
	if !ok {
		return nil, fmt.Errorf("%w: want input data, got %T", domain.ErrMalformedData, n.Data)
	}
	prompt := d.InputPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = d.MessageText
	}
	body := SendText(ctx, prompt, d.ParseMode(), nodeKeyboard(n, &d.Content))
	body = append(body, ScreenTail(ctx, n)...)
	return &Fragment{
		NodeID:   n.ID,
		Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
		Handlers: EntryHandlers(ctx, n),
	}, nil
}

// mediaAttr is the Message attribute carrying a file id for each media kind.
var mediaAttr = map[domain.MediaKind]string{
	domain.MediaPhoto:    "message.photo[-1].file_id",
	domain.MediaVideo:    "message.video.file_id",
	domain.MediaAudio:    "message.audio.file_id",
	domain.MediaDocument: "message.document.file_id",
}

// InputHandlers emits the generic handlers answering a waiting state, one
// per input kind in use. They are registered after every command handler,
// so commands keep working while a user is expected to answer.
func InputHandlers(ctx *Context) []pysrc.Stmt {
	var out []pysrc.Stmt
	if ctx.Flags.TextInput {
		out = append(out, textInputHandler(ctx))
	}
	for _, kind := range domain.MediaKinds() {
		if ctx.Flags.MediaInput(kind) {
			out = append(out, mediaInputHandler(ctx, kind))
		}
	}
	return out
}

func saveVariable(ctx *Context, variable, value string) []pysrc.Stmt {
	if !ctx.DatabaseEnabled {
		return nil
	}
	return []pysrc.Stmt{
		pysrc.NewIf(`state["save"]`, pysrc.L("await save_variable(app, user_id, %s, %s)", variable, value)),
	}
}

func textInputHandler(ctx *Context) pysrc.Stmt {
	body := []pysrc.Stmt{
		pysrc.Line("user_id = message.from_user.id"),
		pysrc.Line("state = app.waiting[user_id]"),
		pysrc.Line("value = message.text"),
		pysrc.Line(`error = validate_input(value, state["input_type"], state["min_length"], state["max_length"])`),
		pysrc.NewIf("error",
			pysrc.Line(`await message.answer(state["retry_text"] or error)`),
			pysrc.Line("return"),
		),
		pysrc.Line(`app.vars(user_id)[state["variable"]] = value`),
	}
	body = append(body, saveVariable(ctx, `state["variable"]`, "value")...)
	body = append(body, pysrc.Line("await finish_input(message, app, user_id)"))

	def := pysrc.Def("handle_text_input", handlerParams, Guard("message.answer", body...))
	return def.Decorate(`router.message(WaitingFor("text"), F.text)`)
}

func mediaInputHandler(ctx *Context, kind domain.MediaKind) pysrc.Stmt {
	body := []pysrc.Stmt{
		pysrc.Line("user_id = message.from_user.id"),
		pysrc.Line("state = app.waiting[user_id]"),
		pysrc.L(`variable = state.get("variables", {}).get(%s, state["variable"])`, pysrc.Quote(string(kind))),
		pysrc.L("file_id = %s", mediaAttr[kind]),
		pysrc.Line("app.vars(user_id)[variable] = file_id"),
	}
	if kind == domain.MediaPhoto {
		body = append(body,
			pysrc.Line("url = await register_media(message.bot, file_id)"),
			pysrc.NewIf("url", pysrc.Line(`app.vars(user_id)[variable + "_url"] = url`)),
		)
	}
	body = append(body, saveVariable(ctx, "variable", "file_id")...)
	body = append(body, pysrc.Line("await finish_input(message, app, user_id)"))

	name := fmt.Sprintf("handle_%s_input", kind)
	def := pysrc.Def(name, handlerParams, Guard("message.answer", body...))
	return def.Decorate(fmt.Sprintf("router.message(WaitingFor(%s), F.%s)", pysrc.Quote(string(kind)), kind))
}
