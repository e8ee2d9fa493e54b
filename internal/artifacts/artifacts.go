// Package artifacts renders the files shipped next to the generated bot:
// requirements.txt, README.md, Dockerfile and the .env template.
// Each generator is a pure function of the project metadata and flags.
package artifacts

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/aretw0/botsmith/internal/assembler"
	"github.com/aretw0/botsmith/internal/features"
	"github.com/aretw0/botsmith/pkg/domain"
)

// TokenPlaceholder is written to .env when no bot token is available.
const TokenPlaceholder = "YOUR_BOT_TOKEN_HERE"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("artifacts").ParseFS(templateFS, "templates/*.tmpl"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func projectName(meta assembler.Meta) string {
	if name := strings.TrimSpace(meta.ProjectName); name != "" {
		return name
	}
	return "Telegram bot"
}

// Requirements lists the Python packages the program imports.
func Requirements(meta assembler.Meta, flags features.Flags) string {
	pkgs := []string{"aiogram>=3.4,<4"}
	if flags.AnyMediaInput() {
		pkgs = append(pkgs, "aiohttp>=3.9")
	}
	if meta.DatabaseEnabled {
		pkgs = append(pkgs, "asyncpg>=0.29")
	}
	return strings.Join(pkgs, "\n") + "\n"
}

type command struct {
	Name        string
	Description string
}

type readmeData struct {
	Name        string
	Image       string
	Database    bool
	MediaAPI    bool
	Commands    []command
	Nodes       int
	Connections int
	Groups      int
	Features    []string
}

// Readme documents how to run the bot and which commands it answers.
func Readme(meta assembler.Meta, g *domain.Graph, flags features.Flags) (string, error) {
	data := readmeData{
		Name:     projectName(meta),
		Image:    imageName(projectName(meta)),
		Database: meta.DatabaseEnabled,
		MediaAPI: flags.AnyMediaInput(),
		Features: featureList(flags),
	}
	if g != nil {
		data.Nodes = len(g.Nodes)
		data.Connections = len(g.Connections)
		data.Groups = len(g.Groups)
		data.Commands = commands(g)
	}
	return render("README.md.tmpl", data)
}

// commands lists every slash command once, in declaration order.
func commands(g *domain.Graph) []command {
	seen := make(map[string]bool)
	var out []command
	for i := range g.Nodes {
		t := domain.TriggerOf(&g.Nodes[i])
		if t == nil {
			continue
		}
		name := t.CommandName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		desc := strings.TrimSpace(t.Description)
		if desc == "" {
			desc = string(g.Nodes[i].Type)
		}
		out = append(out, command{Name: name, Description: strings.ReplaceAll(desc, "|", `\|`)})
	}
	return out
}

func featureList(flags features.Flags) []string {
	named := map[string]bool{
		"Inline keyboards":           flags.InlineButtons,
		"Reply keyboards":            flags.ReplyButtons,
		"User input collection":      flags.InputCollection,
		"Media uploads":              flags.AnyMediaInput(),
		"Conditional messages":       flags.ConditionalMessages,
		"Automatic transitions":      flags.AutoTransitions,
		"Rich text formatting":       flags.RichFormatting,
		"Chat member administration": flags.UserAdminActions,
		"Message moderation":         flags.MessageModeration,
		"Location sharing":           flags.LocationFeatures,
		"Contact sharing":            flags.ContactFeatures,
		"Polls":                      flags.Polls,
		"Dice":                       flags.Dice,
		"Bot menu commands":          flags.MenuCommands,
		"Text synonyms":              flags.Synonyms,
	}
	var out []string
	for name, on := range named {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// imageName turns a project name into a docker image name.
func imageName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "telegram-bot"
	}
	return out
}

// Dockerfile builds a slim image that runs bot.py.
func Dockerfile(meta assembler.Meta) (string, error) {
	return render("Dockerfile.tmpl", struct {
		Name      string
		ProjectID int64
	}{
		Name:      strings.ReplaceAll(projectName(meta), `"`, `'`),
		ProjectID: meta.ProjectID,
	})
}

// Env is the .env template. An empty token is replaced by TokenPlaceholder.
func Env(meta assembler.Meta, flags features.Flags, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		token = TokenPlaceholder
	}
	return render("env.tmpl", struct {
		Name     string
		Token    string
		Database bool
		MediaAPI bool
	}{
		Name:     strings.ReplaceAll(projectName(meta), "\n", " "),
		Token:    token,
		Database: meta.DatabaseEnabled,
		MediaAPI: flags.AnyMediaInput(),
	})
}
