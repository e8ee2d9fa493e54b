package assembler

import (
	"github.com/aretw0/botsmith/internal/emit"
	"github.com/aretw0/botsmith/internal/pysrc"
)

const schemaSQL = `SCHEMA = """
CREATE TABLE IF NOT EXISTS bot_users (
    user_id BIGINT PRIMARY KEY,
    username TEXT,
    first_name TEXT,
    last_name TEXT,
    user_data JSONB NOT NULL DEFAULT '{}'::jsonb,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bot_messages (
    id BIGSERIAL PRIMARY KEY,
    project_id BIGINT NOT NULL,
    user_id BIGINT NOT NULL,
    direction TEXT NOT NULL,
    message_type TEXT NOT NULL,
    content TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
"""`

// database emits the PostgreSQL bootstrap: schema, persistence helpers and
// the logging middlewares.
func database(ctx *emit.Context) []pysrc.Stmt {
	out := []pysrc.Stmt{
		pysrc.Raw(schemaSQL),
		fn("async def init_database(app: AppState) -> None:", `
if not DATABASE_URL:
    logger.warning("DATABASE_URL is not set; running without persistence")
    return
try:
    app.db_pool = await asyncpg.create_pool(DATABASE_URL, min_size=1, max_size=5)
except (OSError, asyncpg.PostgresError):
    logger.exception("cannot connect to the database; running without persistence")
    return
async with app.db_pool.acquire() as conn:
    await conn.execute(SCHEMA)
    rows = await conn.fetch("SELECT user_id, user_data FROM bot_users")
for row in rows:
    app.user_data[row["user_id"]] = json.loads(row["user_data"] or "{}")
    app.known_users.add(row["user_id"])
logger.info("loaded %d users from the database", len(rows))
`),
		fn("async def save_user(app: AppState, user: User) -> None:", `
if app.db_pool is None:
    return
await app.db_pool.execute(
    """
    INSERT INTO bot_users (user_id, username, first_name, last_name)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (user_id) DO UPDATE SET
        username = EXCLUDED.username,
        first_name = EXCLUDED.first_name,
        last_name = EXCLUDED.last_name,
        last_seen_at = now()
    """,
    user.id, user.username, user.first_name, user.last_name,
)
`),
		fn("async def save_variable(app: AppState, user_id: int, name: str, value: Any) -> None:", `
if app.db_pool is None:
    return
await app.db_pool.execute(
    """
    INSERT INTO bot_users (user_id, user_data)
    VALUES ($1, jsonb_build_object($2::text, $3::jsonb))
    ON CONFLICT (user_id) DO UPDATE SET
        user_data = bot_users.user_data || jsonb_build_object($2::text, $3::jsonb)
    """,
    user_id, name, json.dumps(value),
)
`),
		fn("async def log_message(app: AppState, user_id: int, direction: str, message_type: str, content: str | None) -> None:", `
if app.db_pool is None:
    return
await app.db_pool.execute(
    "INSERT INTO bot_messages (project_id, user_id, direction, message_type, content) VALUES ($1, $2, $3, $4, $5)",
    PROJECT_ID, user_id, direction, message_type, content,
)
`),
		&pysrc.Block{
			Header: "class MessageLoggingMiddleware(BaseMiddleware):",
			Body: []pysrc.Stmt{fn("async def __call__(self, handler, event: Message, data: dict[str, Any]) -> Any:", `
app = data["app"]
if event.from_user is not None:
    try:
        await save_user(app, event.from_user)
        await log_message(app, event.from_user.id, "in", event.content_type, event.text or event.caption)
    except Exception:
        logger.exception("could not store incoming message")
return await handler(event, data)
`)},
		},
	}
	if len(ctx.Callbacks.Inline()) > 0 {
		out = append(out, &pysrc.Block{
			Header: "class CallbackLoggingMiddleware(BaseMiddleware):",
			Body: []pysrc.Stmt{fn("async def __call__(self, handler, event: CallbackQuery, data: dict[str, Any]) -> Any:", `
app = data["app"]
try:
    await save_user(app, event.from_user)
    await log_message(app, event.from_user.id, "in", "callback", event.data)
except Exception:
    logger.exception("could not store callback query")
return await handler(event, data)
`)},
		})
	}
	return out
}
