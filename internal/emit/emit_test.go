package emit

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/botsmith/internal/features"
	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, nodes ...domain.Node) (*Context, domain.Diagnostics) {
	t.Helper()
	g := &domain.Graph{Nodes: nodes}
	res := resolver.Resolve(g, false)
	var reachable []domain.Node
	for _, id := range res.Order {
		n, ok := res.Node(id)
		require.True(t, ok)
		reachable = append(reachable, *n)
	}
	ctx, diags := NewContext(g, res, features.Detect(reachable))
	return ctx, append(res.Diagnostics, diags...)
}

func emitNode(t *testing.T, ctx *Context, id string) string {
	t.Helper()
	n, ok := ctx.Node(id)
	require.True(t, ok, "node %s", id)
	frag, err := Emit(n, ctx)
	require.NoError(t, err)
	return pysrc.Render(frag.Stmts())
}

func startNode(text string, buttons ...domain.Button) domain.Node {
	return domain.Node{ID: "start", Type: domain.NodeTypeStart, Data: &domain.CommandData{
		Trigger: domain.Trigger{Command: "/start"},
		Content: domain.Content{MessageText: text, Buttons: buttons},
	}}
}

func messageNode(id string, data *domain.MessageData) domain.Node {
	if data == nil {
		data = &domain.MessageData{Content: domain.Content{MessageText: id}}
	}
	return domain.Node{ID: id, Type: domain.NodeTypeMessage, Data: data}
}

func TestEmit_StartHandler(t *testing.T) {
	ctx, _ := newTestContext(t, startNode("Hello"))
	src := emitNode(t, ctx, "start")

	assert.Equal(t, 1, strings.Count(src, "@router."))
	assert.Contains(t, src, "@router.message(CommandStart())")
	assert.Contains(t, src, `await go_to("start", message, app, user_id)`)
	assert.Contains(t, src, "async def show_start(message: Message, app: AppState, user_id: int):")
	assert.Contains(t, src, `text = "Hello"`)
	assert.NotContains(t, src, "parse_mode")
}

func TestCallbacks_KeyboardMatchesHandlers(t *testing.T) {
	ctx, diags := newTestContext(t,
		startNode("Pick", domain.Button{Text: "A", Target: "a"}, domain.Button{ID: "go_b", Text: "B", Target: "b"}),
		messageNode("a", nil),
		messageNode("b", nil),
	)
	assert.Empty(t, diags.OfKind(domain.DiagCallbackConflict))

	screen := emitNode(t, ctx, "start")
	handlers := pysrc.Render(CallbackHandlers(ctx))

	require.Len(t, ctx.Callbacks.Inline(), 2)
	for _, b := range ctx.Callbacks.Inline() {
		assert.Contains(t, screen, `callback_data="`+b.Key+`"`)
		assert.Contains(t, handlers, `F.data == "`+b.Key+`"`)
	}
	assert.Equal(t, "start_btn_0", ctx.Callbacks.Inline()[0].Key)
	assert.Equal(t, "go_b", ctx.Callbacks.Inline()[1].Key)
	assert.Contains(t, handlers, `await go_to("a", callback.message, app, user_id)`)
}

func TestCallbacks_DuplicateDataIsRenamed(t *testing.T) {
	ctx, diags := newTestContext(t,
		startNode("Pick", domain.Button{ID: "same", Text: "A", Target: "a"}, domain.Button{ID: "same", Text: "B", Target: "b"}),
		messageNode("a", nil),
		messageNode("b", nil),
	)
	keys := []string{ctx.Callbacks.Inline()[0].Key, ctx.Callbacks.Inline()[1].Key}
	assert.Equal(t, []string{"same", "same_2"}, keys)
	assert.Len(t, diags.OfKind(domain.DiagCallbackConflict), 1)
}

func TestCallbacks_LongDataIsHashed(t *testing.T) {
	long := strings.Repeat("x", 80)
	ctx, _ := newTestContext(t,
		startNode("Pick", domain.Button{ID: long, Text: "A", Target: "a"}),
		messageNode("a", nil),
	)
	key := ctx.Callbacks.Inline()[0].Key
	assert.True(t, strings.HasPrefix(key, "cb_"))
	assert.LessOrEqual(t, len(key), MaxCallbackData)
	assert.Equal(t, key, fitCallbackData(long))
}

func TestCallbacks_ReplyTextConflict(t *testing.T) {
	reply := func(id, target string) domain.Node {
		return domain.Node{ID: id, Type: domain.NodeTypeCommand, Data: &domain.CommandData{
			Trigger: domain.Trigger{Command: "/" + id},
			Content: domain.Content{MessageText: id, KeyboardType: domain.KeyboardReply,
				Buttons: []domain.Button{{Text: "Go", Target: target}}},
		}}
	}
	ctx, diags := newTestContext(t, reply("one", "a"), reply("two", "b"), messageNode("a", nil), messageNode("b", nil))

	require.Len(t, ctx.Callbacks.Reply(), 1)
	assert.Equal(t, "a", ctx.Callbacks.Reply()[0].Target)
	shadowed, ok := ctx.Callbacks.Lookup("two", "", 0)
	require.True(t, ok)
	assert.True(t, shadowed.Shadowed)
	assert.Len(t, diags.OfKind(domain.DiagCallbackConflict), 1)

	src := pysrc.Render(ReplyHandlers(ctx))
	assert.Contains(t, src, `@router.message(F.text == "Go")`)
	assert.Contains(t, src, `await go_to("a", message, app, user_id)`)
	assert.NotContains(t, src, `go_to("b"`)
}

func TestEmit_ConditionalChainOrder(t *testing.T) {
	n := messageNode("start", &domain.MessageData{
		Trigger: domain.Trigger{Command: "/start"},
		Content: domain.Content{MessageText: "default"},
		Conditions: domain.Conditions{
			EnableConditionalMessages: true,
			ConditionalMessages: []domain.ConditionalMessage{
				{ID: "late", Condition: domain.CondUserDataExists, VariableName: "name", MessageText: "late", Priority: 2},
				{ID: "early", Condition: domain.CondFirstTime, MessageText: "early", Priority: 1},
			},
		},
	})
	n.Type = domain.NodeTypeStart
	ctx, _ := newTestContext(t, n)
	src := emitNode(t, ctx, "start")

	first := strings.Index(src, "if user_id not in app.known_users:")
	second := strings.Index(src, `elif variables.get("name") not in (None, ""):`)
	fallback := strings.Index(src, `text = "default"`)
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Less(t, second, fallback)
}

func TestEmit_InputRegistersWaitingState(t *testing.T) {
	ctx, _ := newTestContext(t,
		startNode("Hi", domain.Button{Text: "Name", Target: "ask"}),
		messageNode("ask", &domain.MessageData{
			Content:   domain.Content{MessageText: "Your name?"},
			InputSpec: domain.InputSpec{CollectUserInput: true, InputVariable: "name", NextNodeAfterInput: "done"},
		}),
		messageNode("done", nil),
	)
	src := emitNode(t, ctx, "ask")
	assert.Contains(t, src, `"variable": "name",`)
	assert.Contains(t, src, `"next_node_id": "done",`)
	assert.Contains(t, src, `"types": ["text"],`)
	assert.Contains(t, src, `"save": False,`)

	input := pysrc.Render(InputHandlers(ctx))
	assert.Contains(t, input, `@router.message(WaitingFor("text"), F.text)`)
	assert.NotContains(t, input, "save_variable")
}

func TestEmit_AutoTransitionCycleIsCommented(t *testing.T) {
	ctx, diags := newTestContext(t,
		messageNode("start", &domain.MessageData{
			Trigger: domain.Trigger{Command: "/start"},
			Flow:    domain.Flow{EnableAutoTransition: true, AutoTransitionTo: "b"},
		}),
		messageNode("b", &domain.MessageData{Flow: domain.Flow{EnableAutoTransition: true, AutoTransitionTo: "start"}}),
	)
	assert.Len(t, diags.OfKind(domain.DiagAutoTransitionCycle), 1)
	assert.Contains(t, emitNode(t, ctx, "start"), `await go_to("b", message, app, user_id)`)

	b := emitNode(t, ctx, "b")
	assert.NotContains(t, b, `go_to("start"`)
	assert.Contains(t, b, "would loop back")
}

func TestEmit_BanUser(t *testing.T) {
	ctx, _ := newTestContext(t, domain.Node{ID: "ban", Type: domain.NodeTypeBanUser, Data: &domain.UserAdminData{Duration: 3600, Reason: "spam"}})
	src := emitNode(t, ctx, "ban")

	assert.Contains(t, src, `@router.message(Command("ban", ignore_case=True), F.chat.type.in_({"group", "supergroup"}))`)
	assert.Contains(t, src, "target = resolve_target_user(message)")
	assert.Contains(t, src, "until_date=datetime.now() + timedelta(seconds=3600)")
	assert.Contains(t, src, "except TelegramForbiddenError:")
	assert.Contains(t, src, "except TelegramBadRequest as e:")
	assert.NotContains(t, src, "show_ban")
}

func TestEmit_PinNeedsReply(t *testing.T) {
	ctx, _ := newTestContext(t, domain.Node{ID: "pin", Type: domain.NodeTypePinMessage, Data: &domain.ModerationData{DisableNotification: true}})
	src := emitNode(t, ctx, "pin")
	assert.Contains(t, src, "if message.reply_to_message is None:")
	assert.Contains(t, src, "disable_notification=True")
}

func TestEmit_FailuresAreEmitErrors(t *testing.T) {
	ctx, _ := newTestContext(t, startNode("Hi"))

	poll := &domain.Node{ID: "poll", Type: domain.NodeTypePoll, Data: &domain.PollData{Question: "?", Options: []string{"only"}}}
	_, err := Emit(poll, ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmitFailed))
	assert.True(t, errors.Is(err, domain.ErrMalformedData))

	bogus := &domain.Node{ID: "x", Type: "bogus", DecodeErr: domain.ErrUnknownNodeType}
	_, err = Emit(bogus, ctx)
	var emitErr *EmitError
	require.True(t, errors.As(err, &emitErr))
	assert.Equal(t, "x", emitErr.NodeID)
	assert.True(t, errors.Is(err, domain.ErrUnknownNodeType))

	assert.Contains(t, pysrc.Render(Placeholder(bogus, err)), `# node "x" (bogus) was not generated:`)
}

func TestEmit_ButtonEffects(t *testing.T) {
	ctx, _ := newTestContext(t,
		startNode("Color?",
			domain.Button{Text: "Red", Action: domain.ActionSetVariable, Variable: "color", Value: "red", HideAfterClick: true},
		),
	)
	require.True(t, UsesButtonEffects(ctx))
	tables := pysrc.Render(EffectTables(ctx))
	assert.Contains(t, tables, `"start_btn_0": ("color", "red"),`)
	assert.Contains(t, tables, `HIDE_AFTER_CLICK = {"start_btn_0"}`)

	handlers := pysrc.Render(CallbackHandlers(ctx))
	assert.Contains(t, handlers, "await apply_button_effects(app, user_id, callback.data, callback.message)")
	assert.Contains(t, handlers, `await go_to("start", callback.message, app, user_id)`)
}

func TestDispatchTable(t *testing.T) {
	ctx, _ := newTestContext(t, startNode("Hi", domain.Button{Text: "A", Target: "a"}), messageNode("a", nil))
	src := pysrc.Render(DispatchTable(ctx, []string{"start", "a"}))
	assert.Contains(t, src, "SCREENS = {\n    \"start\": show_start,\n    \"a\": show_a,\n}")
	assert.Contains(t, src, "async def go_to(node_id: str, message: Message, app: AppState, user_id: int) -> None:")
	assert.NotContains(t, src, "finish_input")
}

func TestCallbackHandlers_EffectsWithoutInput(t *testing.T) {
	ctx, _ := newTestContext(t,
		startNode("Color?",
			domain.Button{Text: "Red", Action: domain.ActionSetVariable, Variable: "color", Value: "red"},
			domain.Button{Text: "Lost", Target: "missing"},
		),
	)
	require.True(t, UsesButtonEffects(ctx))
	require.False(t, UsesWaiting(ctx))

	handlers := pysrc.Render(CallbackHandlers(ctx))
	assert.Contains(t, handlers, "async def noop_callback(")
	assert.Contains(t, handlers, "await apply_button_effects(app, user_id, callback.data, callback.message)")
	assert.NotContains(t, handlers, "finish_input")
	assert.NotContains(t, pysrc.Render(DispatchTable(ctx, []string{"start"})), "finish_input")
}

func TestCallbackHandlers_EffectsFinishInput(t *testing.T) {
	ctx, _ := newTestContext(t,
		startNode("Color?",
			domain.Button{Text: "Lost", Target: "missing"},
			domain.Button{Text: "Name", Target: "ask"},
		),
		messageNode("ask", &domain.MessageData{
			Content:   domain.Content{MessageText: "Name?", Buttons: []domain.Button{{Text: "Skip"}}},
			InputSpec: domain.InputSpec{CollectUserInput: true, InputVariable: "name"},
		}),
	)
	require.True(t, UsesWaiting(ctx))

	handlers := pysrc.Render(CallbackHandlers(ctx))
	assert.Contains(t, handlers, "if await apply_button_effects(app, user_id, callback.data, callback.message):")
	assert.Contains(t, handlers, "await finish_input(callback.message, app, user_id)")
	assert.Contains(t, pysrc.Render(DispatchTable(ctx, []string{"start", "ask"})), "async def finish_input(")
}

func TestCallbacks_RequestContactKeepsOwnKeyboard(t *testing.T) {
	ctx, _ := newTestContext(t,
		startNode("Hi", domain.Button{Text: "Share", Target: "phone"}),
		domain.Node{ID: "phone", Type: domain.NodeTypeContact, Data: &domain.ContactData{
			Content:        domain.Content{MessageText: "Your number?", Buttons: []domain.Button{{Text: "Back", Target: "start"}}},
			RequestContact: true,
		}},
	)

	_, ok := ctx.Callbacks.Lookup("phone", "", 0)
	assert.False(t, ok)
	for _, b := range ctx.Callbacks.Inline() {
		assert.NotEqual(t, "phone", b.Owner)
	}
	assert.Contains(t, emitNode(t, ctx, "phone"), "request_contact=True")
}

func TestCallbacks_Drop(t *testing.T) {
	reply := func(id, label, target string) domain.Node {
		return messageNode(id, &domain.MessageData{Content: domain.Content{
			MessageText:  id,
			KeyboardType: domain.KeyboardReply,
			Buttons:      []domain.Button{{Text: label, Target: target}},
		}})
	}
	ctx, _ := newTestContext(t,
		startNode("Hi", domain.Button{Text: "A", Target: "a"}, domain.Button{Text: "B", Target: "b"}),
		reply("a", "Next", "start"),
		reply("b", "Next", "b"),
	)
	require.Len(t, ctx.Callbacks.Reply(), 1)
	require.Equal(t, "a", ctx.Callbacks.Reply()[0].Owner)

	ctx.Callbacks.Drop(map[string]bool{"start": true, "a": true})

	assert.Empty(t, ctx.Callbacks.Inline())
	_, ok := ctx.Callbacks.Lookup("start", "", 0)
	assert.False(t, ok)
	require.Len(t, ctx.Callbacks.Reply(), 1)
	assert.Equal(t, "b", ctx.Callbacks.Reply()[0].Owner)
	assert.False(t, ctx.Callbacks.Reply()[0].Shadowed)
}

func TestEmit_AdminChecksAreGuarded(t *testing.T) {
	ban := emitNode(t, mustContext(t, domain.Node{ID: "ban", Type: domain.NodeTypeBanUser, Data: &domain.UserAdminData{}}), "ban")
	pin := emitNode(t, mustContext(t, domain.Node{ID: "pin", Type: domain.NodeTypePinMessage, Data: &domain.ModerationData{}}), "pin")
	admin := emitNode(t, mustContext(t, domain.Node{ID: "start", Type: domain.NodeTypeStart, Data: &domain.CommandData{
		Trigger: domain.Trigger{Command: "/start", AdminOnly: true},
		Content: domain.Content{MessageText: "Hi"},
	}}), "start")

	guarded := func(src, call string) bool {
		at := strings.Index(src, call)
		if at == -1 {
			return false
		}
		def := strings.LastIndex(src[:at], "async def ")
		return def != -1 && strings.Contains(src[def:at], "try:")
	}
	for name, src := range map[string]string{"ban": ban, "pin": pin, "admin-only start": admin} {
		assert.True(t, guarded(src, "is_chat_admin("), "%s: admin check outside the guarded block", name)
		assert.Contains(t, src, "except Exception:", name)
	}
	assert.True(t, guarded(ban, "resolve_target_user("))
}

func TestEmit_CommandIgnoresCase(t *testing.T) {
	ctx := mustContext(t, startNode("Hi"), domain.Node{ID: "help", Type: domain.NodeTypeCommand, Data: &domain.CommandData{
		Trigger: domain.Trigger{Command: "/Help", ShowInMenu: true},
		Content: domain.Content{MessageText: "Help"},
	}})
	src := emitNode(t, ctx, "help")
	assert.Contains(t, src, `@router.message(Command("help", ignore_case=True))`)
}

func mustContext(t *testing.T, nodes ...domain.Node) *Context {
	t.Helper()
	ctx, _ := newTestContext(t, nodes...)
	return ctx
}
