package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

func emitPollNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.PollData)
	if !ok {
		return nil, fmt.Errorf("%w: want poll data, got %T", domain.ErrMalformedData, n.Data)
	}
	var options []string
	for _, o := range d.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	if strings.TrimSpace(d.Question) == "" || len(options) < 2 {
		return nil, fmt.Errorf("%w: a poll needs a question and at least two options", domain.ErrMalformedData)
	}
	anonymous := d.IsAnonymous == nil || *d.IsAnonymous

	body := []pysrc.Stmt{
		pysrc.L("await message.answer_poll(question=%s, options=%s, is_anonymous=%s, allows_multiple_answers=%s)",
			TextExpr(d.Question), pysrc.StrList(options), pysrc.Bool(anonymous), pysrc.Bool(d.AllowsMultipleAnswers)),
	}
	body = append(body, ScreenTail(ctx, n)...)
	return &Fragment{
		NodeID:   n.ID,
		Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
		Handlers: EntryHandlers(ctx, n),
	}, nil
}

var diceEmoji = map[string]bool{"🎲": true, "🎯": true, "🏀": true, "⚽": true, "🎳": true, "🎰": true}

func emitDiceNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.DiceData)
	if !ok {
		return nil, fmt.Errorf("%w: want dice data, got %T", domain.ErrMalformedData, n.Data)
	}
	emoji := strings.TrimSpace(d.Emoji)
	var body []pysrc.Stmt
	if !diceEmoji[emoji] {
		if emoji != "" {
			body = append(body, pysrc.Comment(fmt.Sprintf("unsupported dice emoji %q replaced by the default die", emoji)))
		}
		emoji = "🎲"
	}
	body = append(body, pysrc.L("await message.answer_dice(emoji=%s)", pysrc.Quote(emoji)))
	body = append(body, ScreenTail(ctx, n)...)
	return &Fragment{
		NodeID:   n.ID,
		Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
		Handlers: EntryHandlers(ctx, n),
	}, nil
}

func emitLocationNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.LocationData)
	if !ok {
		return nil, fmt.Errorf("%w: want location data, got %T", domain.ErrMalformedData, n.Data)
	}

	var body []pysrc.Stmt
	hasCoords := d.Latitude != 0 || d.Longitude != 0
	switch {
	case hasCoords && d.Title != "" && d.Address != "":
		body = append(body, pysrc.L("await message.answer_venue(latitude=%s, longitude=%s, title=%s, address=%s)",
			pysrc.Float(d.Latitude), pysrc.Float(d.Longitude), pysrc.Quote(d.Title), pysrc.Quote(d.Address)))
	case hasCoords:
		body = append(body, pysrc.L("await message.answer_location(latitude=%s, longitude=%s)",
			pysrc.Float(d.Latitude), pysrc.Float(d.Longitude)))
	case strings.TrimSpace(d.MapURL) != "":
		body = append(body,
			pysrc.L("coords = parse_map_link(%s)", pysrc.Quote(d.MapURL)),
			pysrc.NewIf("coords",
				pysrc.Line("await message.answer_location(latitude=coords[0], longitude=coords[1])"),
			).Otherwise(
				pysrc.L("logger.warning(\"could not read coordinates from %%s\", %s)", pysrc.Quote(d.MapURL)),
			),
		)
	default:
		body = append(body, pysrc.Comment("no coordinates configured"))
	}
	body = append(body, SendText(ctx, d.MessageText, d.ParseMode(), nodeKeyboard(n, &d.Content))...)
	body = append(body, ScreenTail(ctx, n)...)
	return &Fragment{
		NodeID:   n.ID,
		Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
		Handlers: EntryHandlers(ctx, n),
	}, nil
}

func emitContactNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.ContactData)
	if !ok {
		return nil, fmt.Errorf("%w: want contact data, got %T", domain.ErrMalformedData, n.Data)
	}

	var body []pysrc.Stmt
	if d.RequestContact {
		label := d.RequestText
		if strings.TrimSpace(label) == "" {
			label = "Share my phone number"
		}
		text := d.MessageText
		if strings.TrimSpace(text) == "" {
			text = "Please share your phone number."
		}
		body = append(body,
			pysrc.Line("builder = ReplyKeyboardBuilder()"),
			pysrc.L("builder.button(text=%s, request_contact=True)", pysrc.Quote(label)),
		)
		if next, ok := NextAfterInput(ctx, n, d.NextNodeAfterInput); ok && next != "" {
			body = append(body, pysrc.L("app.pending_shares.setdefault(user_id, {})[\"contact\"] = %s", pysrc.Quote(next)))
		}
		body = append(body,
			pysrc.L("await message.answer(%s, reply_markup=builder.as_markup(resize_keyboard=True, one_time_keyboard=True)%s)",
				TextExpr(text), parseModeArg(d.ParseMode())),
		)
		return &Fragment{
			NodeID:   n.ID,
			Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
			Handlers: EntryHandlers(ctx, n),
		}, nil
	}

	if strings.TrimSpace(d.PhoneNumber) == "" || strings.TrimSpace(d.FirstName) == "" {
		return nil, fmt.Errorf("%w: a contact card needs a phone number and a first name", domain.ErrMalformedData)
	}
	body = append(body, pysrc.L("await message.answer_contact(phone_number=%s, first_name=%s, last_name=%s)",
		pysrc.Quote(d.PhoneNumber), pysrc.Quote(d.FirstName), pysrc.OptString(d.LastName)))
	body = append(body, SendText(ctx, d.MessageText, d.ParseMode(), nodeKeyboard(n, &d.Content))...)
	body = append(body, ScreenTail(ctx, n)...)
	return &Fragment{
		NodeID:   n.ID,
		Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
		Handlers: EntryHandlers(ctx, n),
	}, nil
}

// ShareHandlers emits the handlers receiving a shared location or contact.
// A pending share registered by the screen decides where the flow continues.
func ShareHandlers(ctx *Context) []pysrc.Stmt {
	var out []pysrc.Stmt
	if ctx.Flags.LocationRequests {
		out = append(out, shareHandler(ctx, "location", "on_location_shared", "F.location",
			`{"latitude": message.location.latitude, "longitude": message.location.longitude}`,
			"Thanks, location received."))
	}
	if ctx.Flags.ContactRequests {
		out = append(out, shareHandler(ctx, "contact", "on_contact_shared", "F.contact",
			"message.contact.phone_number",
			"Thanks, phone number received."))
	}
	return out
}

func shareHandler(ctx *Context, kind, name, filter, value, thanks string) pysrc.Stmt {
	body := []pysrc.Stmt{
		pysrc.Line("user_id = message.from_user.id"),
		pysrc.L("value = %s", value),
		pysrc.L("app.vars(user_id)[%s] = value", pysrc.Quote(kind)),
	}
	if ctx.DatabaseEnabled {
		body = append(body, pysrc.L("await save_variable(app, user_id, %s, value)", pysrc.Quote(kind)))
	}
	body = append(body,
		pysrc.L("next_node = app.pending_shares.get(user_id, {}).pop(%s, None)", pysrc.Quote(kind)),
		pysrc.NewIf("next_node",
			pysrc.Line("await go_to(next_node, message, app, user_id)"),
		).Otherwise(
			pysrc.L("await message.answer(%s, reply_markup=ReplyKeyboardRemove())", pysrc.Quote(thanks)),
		),
	)
	def := pysrc.Def(name, handlerParams, Guard("message.answer", body...))
	return def.Decorate(fmt.Sprintf("router.message(%s)", filter))
}
