package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
)

const callbackParams = "callback: CallbackQuery, app: AppState"

// DispatchTable emits SCREENS and the go_to router over the screens that
// were generated, in declaration order.
func DispatchTable(ctx *Context, screens []string) []pysrc.Stmt {
	var b strings.Builder
	b.WriteString("SCREENS = {")
	if len(screens) == 0 {
		b.WriteString("}")
	} else {
		b.WriteString("\n")
		for _, id := range screens {
			fmt.Fprintf(&b, "    %s: %s,\n", pysrc.Quote(id), ctx.Names[id].Screen)
		}
		b.WriteString("}")
	}

	goTo := pysrc.Def("go_to", "node_id: str, message: Message, app: AppState, user_id: int",
		pysrc.Line("app.waiting.pop(user_id, None)"),
		pysrc.Line("screen = SCREENS.get(node_id)"),
		pysrc.NewIf("screen is None",
			pysrc.Line(`logger.warning("no screen registered for node %s", node_id)`),
			pysrc.Line("return"),
		),
		pysrc.Line("await screen(message, app, user_id)"),
		pysrc.Line("app.known_users.add(user_id)"),
	)
	goTo.Header = "async def go_to(node_id: str, message: Message, app: AppState, user_id: int) -> None:"

	out := []pysrc.Stmt{pysrc.Raw(b.String()), goTo}
	if UsesWaiting(ctx) {
		out = append(out, finishInput())
	}
	return out
}

// UsesWaiting reports whether any screen registers a waiting state.
func UsesWaiting(ctx *Context) bool {
	return ctx.Flags.InputCollection
}

func finishInput() pysrc.Stmt {
	return pysrc.Def("finish_input", "message: Message, app: AppState, user_id: int",
		pysrc.Line("state = app.waiting.pop(user_id, None)"),
		pysrc.NewIf(`state and state["next_node_id"]`,
			pysrc.Line(`await go_to(state["next_node_id"], message, app, user_id)`),
		),
	)
}

// UsesButtonEffects reports whether any emitted button writes a variable or
// hides its keyboard when pressed.
func UsesButtonEffects(ctx *Context) bool {
	return len(ctx.Callbacks.Effects()) > 0 || len(ctx.Callbacks.Hidden()) > 0
}

// EffectTables emits BUTTON_RESPONSES, HIDE_AFTER_CLICK and the helper
// applying them. Nothing is emitted when no button has an effect.
func EffectTables(ctx *Context) []pysrc.Stmt {
	if !UsesButtonEffects(ctx) {
		return nil
	}

	var b strings.Builder
	seen := map[string]bool{}
	var rows []string
	for _, bind := range ctx.Callbacks.Effects() {
		if seen[bind.Key] {
			continue
		}
		seen[bind.Key] = true
		rows = append(rows, fmt.Sprintf("    %s: (%s, %s),\n", pysrc.Quote(bind.Key), pysrc.Quote(bind.Effect.Variable), pysrc.Quote(bind.Effect.Value)))
	}
	if len(rows) == 0 {
		b.WriteString("BUTTON_RESPONSES: dict[str, tuple[str, str]] = {}")
	} else {
		b.WriteString("BUTTON_RESPONSES = {\n")
		for _, r := range rows {
			b.WriteString(r)
		}
		b.WriteString("}")
	}

	hidden := ctx.Callbacks.Hidden()
	hide := "HIDE_AFTER_CLICK: set[str] = set()"
	if len(hidden) > 0 {
		hide = "HIDE_AFTER_CLICK = " + pysrc.StrSet(hidden)
	}

	body := []pysrc.Stmt{
		pysrc.Line("answered = False"),
		pysrc.Line("effect = BUTTON_RESPONSES.get(key)"),
	}
	store := []pysrc.Stmt{
		pysrc.Line("variable, value = effect"),
		pysrc.Line("app.vars(user_id)[variable] = value"),
	}
	if ctx.DatabaseEnabled {
		store = append(store, pysrc.Line("await save_variable(app, user_id, variable, value)"))
	}
	store = append(store,
		pysrc.Line("state = app.waiting.get(user_id)"),
		pysrc.Line(`answered = state is not None and state["variable"] == variable`),
	)
	body = append(body,
		pysrc.NewIf("effect is not None", store...),
		pysrc.NewIf("message is not None and key in HIDE_AFTER_CLICK",
			pysrc.NewTry(pysrc.Line("await message.edit_reply_markup(reply_markup=None)")).
				Catch("TelegramBadRequest",
					pysrc.Line(`logger.debug("keyboard of %s already gone", key)`),
				),
		),
		pysrc.Line("return answered"),
	)
	apply := &pysrc.Block{
		Header: "async def apply_button_effects(app: AppState, user_id: int, key: str, message: Message | None = None) -> bool:",
		Body:   body,
	}

	return []pysrc.Stmt{pysrc.Raw(b.String()), pysrc.Raw(hide), apply}
}

func dataFilter(keys []string) string {
	if len(keys) == 1 {
		return "F.data == " + pysrc.Quote(keys[0])
	}
	return "F.data.in_(" + pysrc.StrSet(keys) + ")"
}

func textFilter(keys []string) string {
	if len(keys) == 1 {
		return "F.text == " + pysrc.Quote(keys[0])
	}
	return "F.text.in_(" + pysrc.StrSet(keys) + ")"
}

// CallbackHandlers emits one callback_query handler per inline target,
// matching exactly the callback data its keyboards carry.
func CallbackHandlers(ctx *Context) []pysrc.Stmt {
	effects := UsesButtonEffects(ctx)
	var out []pysrc.Stmt
	for _, g := range ctx.Callbacks.Groups() {
		body := []pysrc.Stmt{pysrc.Line("await callback.answer()")}
		name := "noop_callback"
		if g.Target == "" {
			switch {
			case effects && UsesWaiting(ctx):
				body = append(body, pysrc.NewIf("await apply_button_effects(app, user_id, callback.data, callback.message)",
					pysrc.Line("await finish_input(callback.message, app, user_id)"),
				))
			case effects:
				body = append(body, pysrc.Line("await apply_button_effects(app, user_id, callback.data, callback.message)"))
			}
		} else {
			name = ctx.Names[g.Target].Callback
			if effects {
				body = append(body, pysrc.Line("await apply_button_effects(app, user_id, callback.data, callback.message)"))
			}
			body = append(body, GoTo(g.Target, "callback.message"))
		}
		def := pysrc.Def(name, callbackParams,
			pysrc.Line("user_id = callback.from_user.id"),
			Guard("callback.message.answer", body...),
		)
		out = append(out, def.Decorate(fmt.Sprintf("router.callback_query(%s)", dataFilter(g.Keys))))
	}
	return out
}

// ReplyHandlers emits the text handlers answering reply-keyboard buttons.
// Buttons without a target that record an answer are left to the text
// input handler; buttons without a target or an effect are acknowledged.
func ReplyHandlers(ctx *Context) []pysrc.Stmt {
	effects := UsesButtonEffects(ctx)
	type group struct {
		target string
		keys   []string
	}
	idx := map[string]int{}
	var groups []group
	var noop []string
	for _, bind := range ctx.Callbacks.Reply() {
		if bind.Target == "" {
			if bind.Effect == nil {
				noop = append(noop, bind.Key)
			}
			continue
		}
		i, ok := idx[bind.Target]
		if !ok {
			i = len(groups)
			idx[bind.Target] = i
			groups = append(groups, group{target: bind.Target})
		}
		groups[i].keys = append(groups[i].keys, bind.Key)
	}

	var out []pysrc.Stmt
	for _, g := range groups {
		var body []pysrc.Stmt
		if effects {
			body = append(body, pysrc.Line("await apply_button_effects(app, user_id, message.text)"))
		}
		body = append(body, GoTo(g.target, "message"))
		def := pysrc.Def(ctx.Names[g.target].Reply, handlerParams,
			pysrc.Line("user_id = message.from_user.id"),
			Guard("message.answer", body...),
		)
		out = append(out, def.Decorate(fmt.Sprintf("router.message(%s)", textFilter(g.keys))))
	}
	if len(noop) > 0 {
		sort.Strings(noop)
		def := pysrc.Def("noop_reply", handlerParams,
			pysrc.Line(`await message.answer("OK", reply_markup=ReplyKeyboardRemove())`),
		)
		out = append(out, def.Decorate(fmt.Sprintf("router.message(%s)", textFilter(noop))))
	}
	return out
}

// FallbackHandlers answer messages no other handler took. They are emitted
// only with a database, where the logging middleware has already stored them.
func FallbackHandlers(ctx *Context) []pysrc.Stmt {
	if !ctx.DatabaseEnabled {
		return nil
	}
	text := pysrc.Def("fallback_text", handlerParams,
		pysrc.Line(`await message.answer("Sorry, I did not understand that. Send /start to begin.")`),
	).Decorate("router.message(F.text)")
	photo := pysrc.Def("fallback_photo", handlerParams,
		pysrc.Line("user_id = message.from_user.id"),
		Guard("message.answer",
			pysrc.Line("file_id = message.photo[-1].file_id"),
			pysrc.Line(`app.vars(user_id)["last_photo"] = file_id`),
			pysrc.Line(`await save_variable(app, user_id, "last_photo", file_id)`),
			pysrc.Line(`await message.answer("Photo received.")`),
		),
	).Decorate("router.message(F.photo)")
	return []pysrc.Stmt{text, photo}
}
