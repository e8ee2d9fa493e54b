package assembler

import (
	"strings"

	"github.com/aretw0/botsmith/internal/emit"
	"github.com/aretw0/botsmith/internal/pysrc"
)

// helper is a runtime function of the generated program. It is included
// when the emitted code calls it.
type helper struct {
	name  string
	build func(ctx *emit.Context) []pysrc.Stmt
}

func fn(header, body string) *pysrc.Block {
	return &pysrc.Block{Header: header, Body: []pysrc.Stmt{pysrc.Raw(strings.TrimPrefix(body, "\n"))}}
}

// helpers are listed in the order they appear in the program.
var helpers = []helper{
	{name: "WaitingFor", build: waitingFilter},
	{name: "format_text", build: formatText},
	{name: "validate_input", build: validateInput},
	{name: "matches_synonym", build: matchesSynonym},
	{name: "is_chat_admin", build: isChatAdmin},
	{name: "resolve_target_user", build: resolveTargetUser},
	{name: "register_media", build: registerMedia},
	{name: "parse_map_link", build: parseMapLink},
}

// selectHelpers returns the helpers called from code. Helpers do not call
// each other, so one pass is enough.
func selectHelpers(ctx *emit.Context, code string) []pysrc.Stmt {
	var out []pysrc.Stmt
	for _, h := range helpers {
		if strings.Contains(code, h.name+"(") {
			out = append(out, h.build(ctx)...)
		}
	}
	return out
}

func waitingFilter(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		&pysrc.Block{
			Header: "class WaitingFor(Filter):",
			Body: []pysrc.Stmt{
				pysrc.Line(`"""Matches messages from users the bot is waiting on for this kind of answer."""`),
				pysrc.Blank{},
				pysrc.SyncDef("__init__", "self, kind: str", pysrc.Line("self.kind = kind")),
				pysrc.Blank{},
				fn("async def __call__(self, message: Message, app: AppState) -> bool:", `
state = app.waiting.get(message.from_user.id) if message.from_user else None
return state is not None and self.kind in state["types"]
`),
			},
		},
	}
}

func formatText(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		pysrc.Line(`PLACEHOLDER = re.compile(r"\{([A-Za-z_][A-Za-z0-9_]*)\}")`),
		fn("def format_text(template: str, variables: dict[str, Any]) -> str:", `
def substitute(match: re.Match) -> str:
    value = variables.get(match.group(1))
    return match.group(0) if value is None else str(value)

return PLACEHOLDER.sub(substitute, template)
`),
	}
}

func validateInput(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		pysrc.Line(`EMAIL_PATTERN = re.compile(r"^[^@\s]+@[^@\s]+\.[^@\s]+$")`),
		pysrc.Line(`PHONE_PATTERN = re.compile(r"^\+?[0-9\s\-()]{7,20}$")`),
		fn("def validate_input(value: str, input_type: str, min_length: int, max_length: int) -> str | None:", `
if min_length and len(value) < min_length:
    return f"Please enter at least {min_length} characters."
if max_length and len(value) > max_length:
    return f"Please enter at most {max_length} characters."
if input_type == "number":
    try:
        float(value.replace(",", "."))
    except ValueError:
        return "Please enter a number."
elif input_type == "email" and not EMAIL_PATTERN.match(value):
    return "Please enter a valid email address."
elif input_type == "phone" and not PHONE_PATTERN.match(value):
    return "Please enter a valid phone number."
return None
`),
	}
}

func matchesSynonym(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		fn("def matches_synonym(text: str, synonyms: tuple[str, ...]) -> bool:", `
lowered = text.strip().lower()
for synonym in synonyms:
    candidate = synonym.strip().lower()
    if lowered == candidate or lowered.startswith(candidate + " "):
        return True
return False
`),
	}
}

func isChatAdmin(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		fn("async def is_chat_admin(bot: Bot, chat_id: int, user_id: int) -> bool:", `
try:
    member = await bot.get_chat_member(chat_id, user_id)
except TelegramAPIError as e:
    logger.warning("could not check the rights of %s in %s: %s", user_id, chat_id, e)
    return False
return member.status in ("creator", "administrator")
`),
	}
}

func resolveTargetUser(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		fn("def resolve_target_user(message: Message) -> User | None:", `
reply = message.reply_to_message
if reply is not None and reply.from_user is not None:
    return reply.from_user
for entity in message.entities or []:
    if entity.type == "text_mention" and entity.user is not None:
        return entity.user
return None
`),
	}
}

func registerMedia(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		fn("async def register_media(bot: Bot, file_id: str) -> str | None:", `
if not MEDIA_API_URL:
    return None
try:
    file = await bot.get_file(file_id)
    payload = {"project_id": PROJECT_ID, "file_id": file_id, "file_path": file.file_path}
    timeout = aiohttp.ClientTimeout(total=10)
    async with aiohttp.ClientSession(timeout=timeout) as session:
        async with session.post(MEDIA_API_URL, json=payload) as response:
            if response.status >= 400:
                logger.warning("media registration failed with status %s", response.status)
                return None
            data = await response.json()
            return data.get("url")
except (aiohttp.ClientError, asyncio.TimeoutError):
    logger.exception("media registration failed")
    return None
`),
	}
}

func parseMapLink(*emit.Context) []pysrc.Stmt {
	return []pysrc.Stmt{
		pysrc.Raw(`MAP_PATTERNS = [
    (re.compile(r"@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)"), False),
    (re.compile(r"[?&](?:q|query|destination)=(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)"), False),
    (re.compile(r"[?&](?:ll|pt|m)=(-?\d+(?:\.\d+)?)(?:,|%2C)(-?\d+(?:\.\d+)?)"), True),
    (re.compile(r"[?&]mlat=(-?\d+(?:\.\d+)?)&mlon=(-?\d+(?:\.\d+)?)"), False),
    (re.compile(r"#map=\d+/(-?\d+(?:\.\d+)?)/(-?\d+(?:\.\d+)?)"), False),
]`),
		fn("def parse_map_link(url: str) -> tuple[float, float] | None:", `
"""Reads coordinates from Google, Yandex, 2GIS and OpenStreetMap links."""
for pattern, lon_first in MAP_PATTERNS:
    match = pattern.search(url)
    if match is None:
        continue
    first, second = float(match.group(1)), float(match.group(2))
    latitude, longitude = (second, first) if lon_first else (first, second)
    if -90 <= latitude <= 90 and -180 <= longitude <= 180:
        return latitude, longitude
return None
`),
	}
}
