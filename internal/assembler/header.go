package assembler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
)

// importGroup is one "from module import ..." line. Names are imported
// only when the program body uses them.
type importGroup struct {
	module string
	names  []string
}

var stdlibModules = []string{"asyncio", "json", "logging", "os", "re", "signal"}

var stdlibFrom = []importGroup{
	{"dataclasses", []string{"dataclass", "field"}},
	{"datetime", []string{"datetime", "timedelta"}},
	{"typing", []string{"Any"}},
}

var thirdPartyModules = []string{"aiohttp", "asyncpg"}

var aiogramFrom = []importGroup{
	{"aiogram", []string{"BaseMiddleware", "Bot", "Dispatcher", "F", "Router"}},
	{"aiogram.enums", []string{"ParseMode"}},
	{"aiogram.exceptions", []string{"TelegramAPIError", "TelegramBadRequest", "TelegramForbiddenError"}},
	{"aiogram.filters", []string{"Command", "CommandStart", "Filter"}},
	{"aiogram.types", []string{"BotCommand", "CallbackQuery", "ChatPermissions", "Message", "ReplyKeyboardRemove", "User"}},
	{"aiogram.utils.keyboard", []string{"InlineKeyboardBuilder", "ReplyKeyboardBuilder"}},
}

var (
	stringLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	lineComment   = regexp.MustCompile(`(?m)#.*$`)
)

// scrub drops string literals and comments so user text never pulls an import in.
func scrub(code string) string {
	return lineComment.ReplaceAllString(stringLiteral.ReplaceAllString(code, `""`), "")
}

type usage struct {
	code  string
	cache map[string]bool
}

func (u *usage) uses(name string) bool {
	if v, ok := u.cache[name]; ok {
		return v
	}
	v := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`).MatchString(u.code)
	u.cache[name] = v
	return v
}

func (u *usage) usesModule(name string) bool {
	return strings.Contains(u.code, name+".") && regexp.MustCompile(`(^|[^.\w])`+regexp.QuoteMeta(name)+`\.`).MatchString(u.code)
}

func (u *usage) from(groups []importGroup) []pysrc.Stmt {
	var out []pysrc.Stmt
	for _, g := range groups {
		var names []string
		for _, n := range g.names {
			if u.uses(n) {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			out = append(out, pysrc.L("from %s import %s", g.module, strings.Join(names, ", ")))
		}
	}
	return out
}

// imports returns the import block for a program body, grouped as stdlib,
// third party, aiogram.
func imports(body string) []pysrc.Stmt {
	u := &usage{code: scrub(body), cache: map[string]bool{}}

	var std []pysrc.Stmt
	for _, m := range stdlibModules {
		if u.usesModule(m) {
			std = append(std, pysrc.L("import %s", m))
		}
	}
	std = append(std, u.from(stdlibFrom)...)

	var third []pysrc.Stmt
	for _, m := range thirdPartyModules {
		if u.usesModule(m) {
			third = append(third, pysrc.L("import %s", m))
		}
	}
	third = append(third, u.from(aiogramFrom)...)

	out := std
	if len(third) > 0 {
		out = append(out, pysrc.Blank{})
		out = append(out, third...)
	}
	return out
}

func headerSection(meta Meta, body string) []pysrc.Stmt {
	name := strings.TrimSpace(meta.ProjectName)
	if name == "" {
		name = "Telegram bot"
	}
	var doc strings.Builder
	doc.WriteString(`"""`)
	doc.WriteString(strings.ReplaceAll(name, `"""`, `\"\"\"`))
	doc.WriteString("\n\nGenerated by botsmith. Run with: python bot.py\n")
	if !meta.GeneratedAt.IsZero() {
		fmt.Fprintf(&doc, "Generated at %s.\n", meta.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	doc.WriteString(`"""`)

	out := []pysrc.Stmt{pysrc.Raw(doc.String()), pysrc.Blank{}}
	return append(out, imports(body)...)
}
