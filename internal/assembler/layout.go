package assembler

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/emit"
	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

// layout orders the program: header, state, database, helpers, node
// screens and handlers, routing tables, generic handlers, main.
func (a *Assembler) layout(ctx *emit.Context, meta Meta, nodes []pysrc.Stmt, screens []string) string {
	var handlers []pysrc.Stmt
	handlers = append(handlers, nodes...)
	handlers = append(handlers, emit.DispatchTable(ctx, screens)...)
	handlers = append(handlers, emit.EffectTables(ctx)...)
	handlers = append(handlers, emit.CallbackHandlers(ctx)...)
	handlers = append(handlers, emit.ReplyHandlers(ctx)...)
	handlers = append(handlers, emit.ShareHandlers(ctx)...)
	handlers = append(handlers, emit.InputHandlers(ctx)...)
	handlers = append(handlers, emit.FallbackHandlers(ctx)...)

	code := pysrc.Render(handlers)
	helperStmts := selectHelpers(ctx, code)
	code += pysrc.Render(helperStmts)

	var body []pysrc.Stmt
	body = append(body, prelude(ctx, strings.Contains(code, "MEDIA_API_URL"))...)
	if ctx.DatabaseEnabled {
		body = append(body, database(ctx)...)
	}
	body = append(body, helperStmts...)
	body = append(body, handlers...)
	body = append(body, mainSection(ctx, menuCommands(ctx))...)

	rest := pysrc.Render(body)
	header := pysrc.Render(headerSection(meta, rest))
	return header + "\n\n" + rest
}

// menuCommands lists the commands registered in the Telegram menu, in
// declaration order.
func menuCommands(ctx *emit.Context) [][2]string {
	var out [][2]string
	for _, id := range ctx.Resolution.Order {
		n, ok := ctx.Node(id)
		if !ok || n.DecodeErr != nil {
			continue
		}
		t := domain.TriggerOf(n)
		cmd := domain.CommandOf(n)
		if t == nil || !t.ShowInMenu || cmd == "" || ctx.Resolution.Commands[cmd] != n.ID {
			continue
		}
		desc := strings.TrimSpace(t.Description)
		if desc == "" {
			desc = strings.ToUpper(cmd[:1]) + cmd[1:]
		}
		out = append(out, [2]string{cmd, desc})
	}
	return out
}

func prelude(ctx *emit.Context, mediaAPI bool) []pysrc.Stmt {
	stmts := []pysrc.Stmt{
		pysrc.Line("logger = logging.getLogger(__name__)"),
		pysrc.Blank{},
		pysrc.Line(`BOT_TOKEN = os.getenv("BOT_TOKEN", "")`),
		pysrc.L("PROJECT_ID = %d", ctx.ProjectID),
	}
	if ctx.DatabaseEnabled {
		stmts = append(stmts, pysrc.Line(`DATABASE_URL = os.getenv("DATABASE_URL", "")`))
	}
	if mediaAPI {
		stmts = append(stmts, pysrc.Line(`MEDIA_API_URL = os.getenv("MEDIA_API_URL", "")`))
	}
	stmts = append(stmts,
		pysrc.Line(`GENERIC_ERROR_TEXT = "Something went wrong. Please try again later."`),
		pysrc.Blank{},
		pysrc.Line("router = Router()"),
	)

	fields := []pysrc.Stmt{
		pysrc.Line(`"""Bot state shared by every handler through the dispatcher's "app" key."""`),
		pysrc.Blank{},
		pysrc.Line("user_data: dict[int, dict[str, Any]] = field(default_factory=dict)"),
		pysrc.Line("waiting: dict[int, dict[str, Any]] = field(default_factory=dict)"),
		pysrc.Line("known_users: set[int] = field(default_factory=set)"),
		pysrc.Line("pending_shares: dict[int, dict[str, str]] = field(default_factory=dict)"),
	}
	if ctx.DatabaseEnabled {
		fields = append(fields, pysrc.Line("db_pool: asyncpg.Pool | None = None"))
	}
	fields = append(fields,
		pysrc.Blank{},
		&pysrc.Block{
			Header: "def vars(self, user_id: int) -> dict[str, Any]:",
			Body:   []pysrc.Stmt{pysrc.Line("return self.user_data.setdefault(user_id, {})")},
		},
	)
	state := &pysrc.Block{Header: "class AppState:", Body: fields}
	state.Decorate("dataclass")

	return append(stmts, state)
}

func mainSection(ctx *emit.Context, menu [][2]string) []pysrc.Stmt {
	var out []pysrc.Stmt
	if len(menu) > 0 {
		var b strings.Builder
		b.WriteString("MENU_COMMANDS = [\n")
		for _, m := range menu {
			fmt.Fprintf(&b, "    BotCommand(command=%s, description=%s),\n", pysrc.Quote(m[0]), pysrc.Quote(m[1]))
		}
		b.WriteString("]")
		out = append(out, pysrc.Raw(b.String()))
	}

	level := "logging.WARNING"
	if ctx.LoggingEnabled {
		level = "logging.INFO"
	}
	body := []pysrc.Stmt{
		pysrc.L(`logging.basicConfig(level=%s, format="%%(asctime)s %%(levelname)s %%(name)s: %%(message)s")`, level),
		pysrc.NewIf("not BOT_TOKEN",
			pysrc.Line(`raise SystemExit("BOT_TOKEN is not set")`),
		),
		pysrc.Blank{},
		pysrc.Line("bot = Bot(token=BOT_TOKEN)"),
		pysrc.Line("dp = Dispatcher()"),
		pysrc.Line("app = AppState()"),
		pysrc.Line(`dp["app"] = app`),
		pysrc.Line("dp.include_router(router)"),
		pysrc.Line("stopper = None"),
	}

	// startup runs inside the try so the session and pool are closed on failure
	var startup []pysrc.Stmt
	if ctx.DatabaseEnabled {
		startup = append(startup,
			pysrc.Line("await init_database(app)"),
			pysrc.Line("dp.message.outer_middleware(MessageLoggingMiddleware())"),
		)
		if len(ctx.Callbacks.Inline()) > 0 {
			startup = append(startup, pysrc.Line("dp.callback_query.outer_middleware(CallbackLoggingMiddleware())"))
		}
	}
	if len(menu) > 0 {
		startup = append(startup, pysrc.Line("await bot.set_my_commands(MENU_COMMANDS)"))
	}
	if len(startup) > 0 {
		startup = append(startup, pysrc.Blank{})
	}
	startup = append(startup,
		pysrc.Line("stop = asyncio.Event()"),
		pysrc.Line("loop = asyncio.get_running_loop()"),
		&pysrc.Block{
			Header: "for sig in (signal.SIGINT, signal.SIGTERM):",
			Body: []pysrc.Stmt{
				pysrc.NewTry(pysrc.Line("loop.add_signal_handler(sig, stop.set)")).
					Catch("NotImplementedError",
						pysrc.Line("signal.signal(sig, lambda *_: stop.set())"),
					),
			},
		},
		pysrc.Blank{},
		pysrc.Line(`logger.info("bot started")`),
		pysrc.Line("polling = asyncio.create_task(dp.start_polling(bot, handle_signals=False))"),
		pysrc.Line("stopper = asyncio.create_task(stop.wait())"),
		pysrc.Line("await asyncio.wait({polling, stopper}, return_when=asyncio.FIRST_COMPLETED)"),
		pysrc.NewIf("not polling.done()",
			pysrc.Line("await dp.stop_polling()"),
		),
		pysrc.Line("await polling"),
	)

	cleanup := []pysrc.Stmt{pysrc.NewIf("stopper is not None",
		pysrc.Line("stopper.cancel()"),
	)}
	if ctx.DatabaseEnabled {
		cleanup = append(cleanup, pysrc.NewIf("app.db_pool is not None",
			pysrc.Line("await app.db_pool.close()"),
		))
	}
	cleanup = append(cleanup,
		pysrc.Line("await bot.session.close()"),
		pysrc.Line(`logger.info("bot stopped")`),
	)
	body = append(body, pysrc.Blank{}, pysrc.NewTry(startup...).Always(cleanup...))

	out = append(out, &pysrc.Block{Header: "async def main() -> None:", Body: body}, &pysrc.Block{
		Header: `if __name__ == "__main__":`,
		Body:   []pysrc.Stmt{pysrc.Line("asyncio.run(main())")},
	})
	return out
}
