package emit

import (
	"github.com/aretw0/botsmith/internal/features"
	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
)

// NodeNames are the Python identifiers generated for one node.
type NodeNames struct {
	Screen   string
	Entry    string
	Synonym  string
	Callback string
	Reply    string
}

// Context carries everything an emitter may read. It is built once per
// compile and never mutated during emission, so emitters can run in parallel.
type Context struct {
	ProjectID       int64
	ProjectName     string
	DatabaseEnabled bool
	LoggingEnabled  bool
	CommentsEnabled bool

	Graph      *domain.Graph
	Resolution *resolver.Result
	Flags      features.Flags
	Callbacks  *Callbacks
	Names      map[string]NodeNames
}

// Reserved are the module-level identifiers of the generated program that
// node functions must not shadow.
var Reserved = []string{
	"AppState", "Bot", "BotCommand", "CallbackQuery", "Command", "CommandStart",
	"Dispatcher", "F", "Filter", "Message", "Router", "WaitingFor",
	"BOT_TOKEN", "PROJECT_ID", "DATABASE_URL", "MEDIA_API_URL", "GENERIC_ERROR_TEXT",
	"SCREENS", "BUTTON_RESPONSES", "HIDE_AFTER_CLICK", "MENU_COMMANDS",
	"router", "logger", "main", "go_to", "apply_button_effects", "finish_input",
	"format_text", "validate_input", "matches_synonym", "is_chat_admin",
	"resolve_target_user", "register_media", "parse_map_link",
	"init_database", "save_user", "save_variable", "log_message",
	"noop_callback", "noop_reply", "on_location_shared", "on_contact_shared",
	"handle_text_input", "handle_photo_input", "handle_video_input",
	"handle_audio_input", "handle_document_input",
	"fallback_text", "fallback_photo",
}

// NewContext prepares the shared emission context: identifiers and the
// callback registry are assigned here, in declaration order.
func NewContext(g *domain.Graph, res *resolver.Result, flags features.Flags) (*Context, domain.Diagnostics) {
	callbacks, diags := BuildCallbacks(res)
	ctx := &Context{
		Graph:      g,
		Resolution: res,
		Flags:      flags,
		Callbacks:  callbacks,
		Names:      AssignNames(res),
	}
	return ctx, diags
}

// AssignNames gives every emitted node unique function names.
func AssignNames(res *resolver.Result) map[string]NodeNames {
	names := pysrc.NewNames(Reserved...)
	out := make(map[string]NodeNames, len(res.Order))
	for _, id := range res.Order {
		base := pysrc.Ident(id)
		out[id] = NodeNames{
			Screen:   names.Unique("show_" + base),
			Entry:    names.Unique(base + "_handler"),
			Synonym:  names.Unique(base + "_synonym_handler"),
			Callback: names.Unique("on_" + base + "_callback"),
			Reply:    names.Unique("on_" + base + "_reply"),
		}
	}
	return out
}

// Node returns the declared node with the given id.
func (c *Context) Node(id string) (*domain.Node, bool) {
	return c.Resolution.Node(id)
}

// Groups returns the bot groups of the graph.
func (c *Context) Groups() []domain.BotGroup {
	return c.Graph.Groups
}

// Reachable reports whether the node is emitted.
func (c *Context) Reachable(id string) bool {
	return c.Resolution.Reachable[id]
}
