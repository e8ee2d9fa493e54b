package assembler

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/botsmith/internal/emit"
	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/dsl"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(t *testing.T, g *domain.Graph, meta Meta, opts ...Option) *Result {
	t.Helper()
	res, err := New(opts...).Assemble(context.Background(), g, meta)
	require.NoError(t, err)
	return res
}

func TestAssemble_SingleStart(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hello")

	res := assemble(t, b.MustBuild(), Meta{ProjectName: "Hello bot"})

	assert.Equal(t, 1, strings.Count(res.Program, "@router."))
	assert.Contains(t, res.Program, "@router.message(CommandStart())")
	assert.Contains(t, res.Program, `"start": show_start,`)
	assert.Contains(t, res.Program, `if __name__ == "__main__":`)
	assert.Empty(t, res.Diagnostics)
}

func TestAssemble_CallbackDataMatchesFilter(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Pick one").Button("Next", "message")
	b.Message("message").Text("You made it")

	res := assemble(t, b.MustBuild(), Meta{})

	assert.Equal(t, 2, strings.Count(res.Program, "@router."))
	inline := res.Context.Callbacks.Inline()
	require.Len(t, inline, 1)
	key := inline[0].Key
	assert.Contains(t, res.Program, `callback_data="`+key+`"`)
	assert.Contains(t, res.Program, `@router.callback_query(F.data == "`+key+`")`)
	assert.Contains(t, res.Program, `await go_to("message", callback.message, app, user_id)`)
}

func TestAssemble_SelfTransition(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi").Go("loop")
	b.Message("loop").Text("Again").Go("loop")

	done := make(chan *Result, 1)
	go func() {
		res, err := New().Assemble(context.Background(), b.MustBuild(), Meta{})
		if err == nil {
			done <- res
		}
		close(done)
	}()

	select {
	case res := <-done:
		require.NotNil(t, res)
		assert.Contains(t, res.Program, "would loop back")
		assert.NotEmpty(t, res.Diagnostics.OfKind(domain.DiagAutoTransitionCycle))
	case <-time.After(5 * time.Second):
		t.Fatal("compilation did not terminate")
	}
}

func TestAssemble_ConditionalPriority(t *testing.T) {
	b := dsl.New()
	start := b.Start("start").Text("default")
	for _, p := range []int{2, 0, 1} {
		v := "v" + string(rune('0'+p))
		start.When(domain.ConditionalMessage{
			ID:           "c" + v,
			Condition:    domain.CondUserDataExists,
			VariableName: v,
			MessageText:  "matched " + v,
			Priority:     p,
		})
	}

	res := assemble(t, b.MustBuild(), Meta{})

	prev := -1
	for _, v := range []string{"v0", "v1", "v2"} {
		idx := strings.Index(res.Program, `variables.get("`+v+`")`)
		require.NotEqual(t, -1, idx, v)
		assert.Greater(t, idx, prev, v)
		prev = idx
	}
	assert.Contains(t, res.Program, `if variables.get("v0")`)
	assert.Contains(t, res.Program, `elif variables.get("v1")`)
}

func fullGraph() *domain.Graph {
	b := dsl.New()
	b.Start("start").
		Text("Welcome, <b>friend</b>").
		Format("html").
		Describe("Open the main menu").
		Button("Profile", "profile").
		Button("Help", "help")
	b.Message("profile").Text("What is your name?").Ask("name", "thanks")
	b.Message("thanks").Text("Thanks, {name}!")
	b.Command("help", "/help").Text("Send /start").Describe("Show help")
	b.Add("orphan", domain.NodeTypeMessage).Text("nobody links here")
	return b.MustBuild()
}

func TestAssemble_Deterministic(t *testing.T) {
	meta := Meta{ProjectID: 7, ProjectName: "Demo", LoggingEnabled: true}
	first := assemble(t, fullGraph(), meta, WithWorkers(8))
	for range 5 {
		again := assemble(t, fullGraph(), meta, WithWorkers(3))
		if diff := cmp.Diff(first.Program, again.Program); diff != "" {
			t.Fatalf("program changed between compiles (-first +again):\n%s", diff)
		}
		assert.Equal(t, first.Diagnostics, again.Diagnostics)
	}
}

func TestAssemble_UnreachableNodesAreSkipped(t *testing.T) {
	res := assemble(t, fullGraph(), Meta{})
	assert.NotContains(t, res.Program, "nobody links here")

	res = assemble(t, fullGraph(), Meta{EmitAll: true})
	assert.Contains(t, res.Program, "nobody links here")
}

func TestAssemble_FeatureMinimality(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Plain").Button("Next", "next")
	b.Message("next").Text("Still plain")

	src := assemble(t, b.MustBuild(), Meta{}).Program
	head := src[:strings.Index(src, "logger = ")]

	assert.NotContains(t, head, "ParseMode")
	assert.NotContains(t, head, "import aiohttp")
	assert.NotContains(t, head, "import asyncpg")
	assert.NotContains(t, head, "import re")
	assert.NotContains(t, head, "import json")
	assert.NotContains(t, src, "DATABASE_URL")
	assert.NotContains(t, src, "def validate_input(")
	assert.NotContains(t, src, "def finish_input(")
	assert.Contains(t, head, "import asyncio")
	assert.Contains(t, head, "from aiogram.utils.keyboard import InlineKeyboardBuilder")
}

func TestAssemble_RichFeaturesPullImports(t *testing.T) {
	src := assemble(t, fullGraph(), Meta{}).Program
	head := src[:strings.Index(src, "logger = ")]

	assert.Contains(t, head, "from aiogram.enums import ParseMode")
	assert.Contains(t, src, "def finish_input(")
	assert.Contains(t, src, "MENU_COMMANDS = [")
	assert.Contains(t, src, `BotCommand(command="start", description="Open the main menu"),`)
	assert.Contains(t, src, "await bot.set_my_commands(MENU_COMMANDS)")
}

func TestAssemble_Database(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi").Button("Go", "next")
	b.Message("next").Text("Next")

	src := assemble(t, b.MustBuild(), Meta{DatabaseEnabled: true}).Program

	assert.Contains(t, src, "import asyncpg")
	assert.Contains(t, src, `DATABASE_URL = os.getenv("DATABASE_URL", "")`)
	assert.Contains(t, src, "db_pool: asyncpg.Pool | None = None")
	assert.Contains(t, src, "async def init_database(app: AppState) -> None:")
	assert.Contains(t, src, "dp.message.outer_middleware(MessageLoggingMiddleware())")
	assert.Contains(t, src, "dp.callback_query.outer_middleware(CallbackLoggingMiddleware())")
	assert.Contains(t, src, "await app.db_pool.close()")
	assert.Contains(t, src, "async def fallback_text(")
}

func TestAssemble_DatabaseWithoutInlineButtons(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi")

	src := assemble(t, b.MustBuild(), Meta{DatabaseEnabled: true}).Program
	assert.Contains(t, src, "MessageLoggingMiddleware")
	assert.NotContains(t, src, "CallbackLoggingMiddleware")
}

func TestAssemble_FailedNodeBecomesPlaceholder(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Vote").Button("Poll", "poll")
	b.Add("poll", domain.NodeTypePoll).Configure(func(d domain.NodeData) {
		d.(*domain.PollData).Question = "Only one option?"
		d.(*domain.PollData).Options = []string{"yes"}
	})

	res := assemble(t, b.MustBuild(), Meta{})

	failures := res.Diagnostics.OfKind(domain.DiagEmitterFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, "poll", failures[0].NodeID)
	assert.Equal(t, domain.SeverityError, failures[0].Severity)
	assert.Contains(t, res.Program, `# node "poll" (poll) was not generated:`)
	assert.NotContains(t, res.Program, `"poll": show_poll,`)
	assert.Contains(t, res.Program, `"start": show_start,`)
}

func TestSafeEmit_RecoversPanics(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi")
	res := assemble(t, b.MustBuild(), Meta{})

	broken := &domain.Node{ID: "broken", Type: domain.NodeTypeMessage, Data: (*domain.MessageData)(nil)}
	frag, err := safeEmit(broken, res.Context)

	assert.Nil(t, frag)
	var emitErr *emit.EmitError
	require.True(t, errors.As(err, &emitErr))
	assert.Equal(t, "broken", emitErr.NodeID)
	assert.Contains(t, err.Error(), "emitter panic")
}

func TestAssemble_Hooks(t *testing.T) {
	var mu sync.Mutex
	var events []domain.EventType
	var nodes atomic.Int32
	hooks := domain.CompileHooks{
		OnCompileStart: func(_ context.Context, e *domain.CompileEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e.Type)
		},
		OnCompileEnd: func(_ context.Context, e *domain.CompileEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e.Type)
		},
		OnNodeEmitted: func(context.Context, *domain.NodeEvent) {
			nodes.Add(1)
		},
		OnDiagnostic: func(_ context.Context, e *domain.DiagnosticEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e.Type)
		},
	}

	b := dsl.New()
	b.Start("start").Text("Hi").Button("Lost", "missing")
	assemble(t, b.MustBuild(), Meta{}, WithHooks(hooks))

	assert.Equal(t, int32(1), nodes.Load())
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventCompileStart, events[0])
	assert.Equal(t, domain.EventCompileEnd, events[len(events)-1])
	assert.Contains(t, events, domain.EventDiagnostic)
}

func TestAssemble_Header(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	src := assemble(t, b.MustBuild(), Meta{ProjectName: "Shop", GeneratedAt: at}).Program
	assert.True(t, strings.HasPrefix(src, "\"\"\"Shop\n"))
	assert.Contains(t, src, "Generated at 2026-01-02 03:04:05 UTC.")

	src = assemble(t, b.MustBuild(), Meta{}).Program
	assert.True(t, strings.HasPrefix(src, "\"\"\"Telegram bot\n"))
	assert.NotContains(t, src, "Generated at")
}

func TestAssemble_NilGraph(t *testing.T) {
	_, err := New().Assemble(context.Background(), nil, Meta{})
	assert.ErrorIs(t, err, domain.ErrEmptyGraph)
}

func TestAssemble_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Assemble(ctx, fullGraph(), Meta{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImports_IgnoreStringsAndComments(t *testing.T) {
	body := "x = \"json.dumps re.match\"\n# asyncio.sleep\nawait asyncio.sleep(1)\n"
	got := pysrc.Render(imports(body))
	assert.Equal(t, "import asyncio", got)
}

var (
	dataEquals = regexp.MustCompile(`F\.data == "((?:[^"\\]|\\.)*)"`)
	dataIn     = regexp.MustCompile(`F\.data\.in_\(\{([^}]*)\}\)`)
	quoted     = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// callbackFilters returns every callback data value a handler filters on.
func callbackFilters(src string) []string {
	var keys []string
	for _, m := range dataEquals.FindAllStringSubmatch(src, -1) {
		keys = append(keys, m[1])
	}
	for _, m := range dataIn.FindAllStringSubmatch(src, -1) {
		for _, q := range quoted.FindAllStringSubmatch(m[1], -1) {
			keys = append(keys, q[1])
		}
	}
	return keys
}

func TestAssemble_EveryCallbackFilterHasAButton(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi").Button("Card", "card").Button("Phone", "phone").Button("Next", "next")
	b.Add("card", domain.NodeTypeContact).Text("Broken card").Button("Back", "start")
	b.Add("phone", domain.NodeTypeContact).Text("Your number?").Button("Back", "start").Configure(func(d domain.NodeData) {
		d.(*domain.ContactData).RequestContact = true
	})
	b.Message("next").Text("Done").Button("Again", "start").Button("Lost", "missing")

	res := assemble(t, b.MustBuild(), Meta{})

	require.Len(t, res.Diagnostics.OfKind(domain.DiagEmitterFailure), 1)
	keys := callbackFilters(res.Program)
	require.NotEmpty(t, keys)
	for _, key := range keys {
		assert.Contains(t, res.Program, `callback_data="`+key+`"`, "handler for %q has no button", key)
	}
	assert.NotContains(t, res.Program, `"card_btn_0"`)
	assert.NotContains(t, res.Program, `"phone_btn_0"`)
}

func TestAssemble_StartupFailuresStillCleanUp(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi").Describe("Open the menu").Button("Go", "next")
	b.Message("next").Text("Next")

	src := assemble(t, b.MustBuild(), Meta{DatabaseEnabled: true}).Program
	main := src[strings.Index(src, "async def main() -> None:"):]

	try := strings.Index(main, "\n    try:\n")
	finally := strings.Index(main, "\n    finally:\n")
	require.NotEqual(t, -1, try)
	require.NotEqual(t, -1, finally)
	for _, stmt := range []string{"await init_database(app)", "await bot.set_my_commands(MENU_COMMANDS)", "dp.start_polling("} {
		at := strings.Index(main, stmt)
		require.NotEqual(t, -1, at, stmt)
		assert.Greater(t, at, try, "%s runs before the try", stmt)
		assert.Less(t, at, finally, stmt)
	}
	cleanup := main[finally:]
	assert.Contains(t, cleanup, "if stopper is not None:")
	assert.Contains(t, cleanup, "if app.db_pool is not None:")
	assert.Contains(t, cleanup, "await bot.session.close()")
	assert.Less(t, strings.Index(main, "stopper = None"), try)
}

func TestAssemble_AdminCheckCatchesAPIErrors(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi")
	b.Add("ban", domain.NodeTypeBanUser)

	src := assemble(t, b.MustBuild(), Meta{}).Program
	assert.Contains(t, src, "except TelegramAPIError as e:")
	assert.Contains(t, src, "from aiogram.exceptions import TelegramAPIError, TelegramBadRequest, TelegramForbiddenError")
}
