package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

type adminAction struct {
	verb    string
	success string
}

var adminActions = map[domain.NodeType]adminAction{
	domain.NodeTypeBanUser:     {"ban", "User {name} has been banned."},
	domain.NodeTypeUnbanUser:   {"unban", "User {name} has been unbanned."},
	domain.NodeTypeMuteUser:    {"mute", "User {name} has been muted."},
	domain.NodeTypeUnmuteUser:  {"unmute", "User {name} can write again."},
	domain.NodeTypeKickUser:    {"kick", "User {name} has been removed from the chat."},
	domain.NodeTypePromoteUser: {"promote", "User {name} is now an administrator."},
	domain.NodeTypeDemoteUser:  {"demote", "User {name} is no longer an administrator."},
	domain.NodeTypeAdminRights: {"change the rights of", "Administrator rights of {name} have been updated."},
}

// defaultPromotion is granted when a promote node does not list any right.
var defaultPromotion = domain.AdminRights{
	CanManageChat:      true,
	CanDeleteMessages:  true,
	CanRestrictMembers: true,
	CanInviteUsers:     true,
	CanPinMessages:     true,
}

func rightsArgs(r domain.AdminRights) string {
	pairs := []struct {
		name string
		on   bool
	}{
		{"can_manage_chat", r.CanManageChat},
		{"can_change_info", r.CanChangeInfo},
		{"can_delete_messages", r.CanDeleteMessages},
		{"can_restrict_members", r.CanRestrictMembers},
		{"can_invite_users", r.CanInviteUsers},
		{"can_pin_messages", r.CanPinMessages},
		{"can_manage_video_chats", r.CanManageVideoChats},
		{"can_promote_members", r.CanPromoteMembers},
		{"is_anonymous", r.IsAnonymous},
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.name + "=" + pysrc.Bool(p.on)
	}
	return strings.Join(parts, ", ")
}

const restoredPermissions = "ChatPermissions(can_send_messages=True, can_send_audios=True, " +
	"can_send_documents=True, can_send_photos=True, can_send_videos=True, can_send_video_notes=True, " +
	"can_send_voice_notes=True, can_send_polls=True, can_send_other_messages=True, can_add_web_page_previews=True)"

const targetArgs = "chat_id=message.chat.id, user_id=target.id"

func untilArg(d *domain.UserAdminData) string {
	if d.Duration <= 0 {
		return ""
	}
	return fmt.Sprintf(", until_date=datetime.now() + timedelta(seconds=%d)", d.Duration)
}

// adminCalls returns the bot API calls performing the node's action.
func adminCalls(t domain.NodeType, d *domain.UserAdminData) []pysrc.Stmt {
	switch t {
	case domain.NodeTypeBanUser:
		return []pysrc.Stmt{pysrc.L("await message.bot.ban_chat_member(%s%s, revoke_messages=%s)", targetArgs, untilArg(d), pysrc.Bool(d.RevokeMessages))}
	case domain.NodeTypeUnbanUser:
		return []pysrc.Stmt{pysrc.L("await message.bot.unban_chat_member(%s, only_if_banned=True)", targetArgs)}
	case domain.NodeTypeMuteUser:
		return []pysrc.Stmt{pysrc.L("await message.bot.restrict_chat_member(%s, permissions=ChatPermissions(can_send_messages=False)%s)", targetArgs, untilArg(d))}
	case domain.NodeTypeUnmuteUser:
		return []pysrc.Stmt{pysrc.L("await message.bot.restrict_chat_member(%s, permissions=%s)", targetArgs, restoredPermissions)}
	case domain.NodeTypeKickUser:
		return []pysrc.Stmt{
			pysrc.L("await message.bot.ban_chat_member(%s)", targetArgs),
			pysrc.L("await message.bot.unban_chat_member(%s, only_if_banned=True)", targetArgs),
		}
	case domain.NodeTypePromoteUser:
		rights := d.Rights
		if rights == (domain.AdminRights{}) {
			rights = defaultPromotion
		}
		return []pysrc.Stmt{pysrc.L("await message.bot.promote_chat_member(%s, %s)", targetArgs, rightsArgs(rights))}
	case domain.NodeTypeDemoteUser:
		return []pysrc.Stmt{pysrc.L("await message.bot.promote_chat_member(%s, %s)", targetArgs, rightsArgs(domain.AdminRights{}))}
	case domain.NodeTypeAdminRights:
		return []pysrc.Stmt{pysrc.L("await message.bot.promote_chat_member(%s, %s)", targetArgs, rightsArgs(d.Rights))}
	}
	return nil
}

// groupFilters limits an administrative handler to group chats and, when
// configured, to the node's target chat.
func groupFilters(ctx *Context, n *domain.Node, trigger string) []string {
	filters := []string{trigger, `F.chat.type.in_({"group", "supergroup"})`}
	if f := chatFilter(ctx, n); f != "" {
		filters = append(filters, f)
	}
	return filters
}

func emitUserAdminNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.UserAdminData)
	if !ok {
		return nil, fmt.Errorf("%w: want admin action data, got %T", domain.ErrMalformedData, n.Data)
	}
	action, ok := adminActions[n.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an admin action", domain.ErrUnknownNodeType, n.Type)
	}

	success := d.SuccessText
	if strings.TrimSpace(success) == "" {
		success = action.success
	}
	successExpr := fmt.Sprintf("%s.replace(\"{name}\", target.full_name)", pysrc.Quote(success))
	if d.Reason != "" {
		successExpr += fmt.Sprintf(" + %s", pysrc.Quote("\nReason: "+d.Reason))
	}

	calls := adminCalls(n.Type, d)
	calls = append(calls, pysrc.L("await message.answer(%s)", successExpr))
	attempt := pysrc.NewTry(calls...).
		Catch("TelegramForbiddenError",
			pysrc.Line(`await message.answer("I lack the rights to do that. Make me an administrator with the needed permissions.")`),
		).
		Catch("TelegramBadRequest as e",
			pysrc.L("logger.warning(\"%s failed: %%s\", e.message)", action.verb),
			pysrc.Line(`await message.answer(f"Telegram refused the action: {e.message}")`),
		).
		Catch("Exception",
			pysrc.L("logger.exception(\"%s failed\")", action.verb),
			pysrc.Line("await message.answer(GENERIC_ERROR_TEXT)"),
		)

	body := []pysrc.Stmt{
		pysrc.Line("user_id = message.from_user.id"),
		Guard("message.answer",
			pysrc.NewIf("not await is_chat_admin(message.bot, message.chat.id, user_id)",
				pysrc.Line(`await message.answer("Only chat administrators can use this command.")`),
				pysrc.Line("return"),
			),
			pysrc.Line("target = resolve_target_user(message)"),
			pysrc.NewIf("target is None",
				pysrc.L("await message.answer(%s)", pysrc.Quote(fmt.Sprintf("Reply to a message or mention a user to %s them.", action.verb))),
				pysrc.Line("return"),
			),
			attempt,
		),
	}
	if ctx.CommentsEnabled {
		body = append([]pysrc.Stmt{pysrc.Comment(fmt.Sprintf("%s node %q", n.Type, n.ID))}, body...)
	}

	return &Fragment{NodeID: n.ID, Handlers: actionHandlers(ctx, n, body)}, nil
}

// actionHandlers registers an administrative body under the node's command
// and, when configured, its synonyms.
func actionHandlers(ctx *Context, n *domain.Node, body []pysrc.Stmt) []pysrc.Stmt {
	names := ctx.Names[n.ID]
	var out []pysrc.Stmt
	if ownsCommand(ctx, n) {
		trigger := commandTrigger(domain.CommandOf(n))
		def := pysrc.Def(names.Entry, handlerParams, body...)
		out = append(out, def.Decorate(fmt.Sprintf("router.message(%s)", strings.Join(groupFilters(ctx, n, trigger), ", "))))
	}
	if syns := synonymFilters(ctx, n); syns != nil {
		def := pysrc.Def(names.Synonym, handlerParams, body...)
		out = append(out, def.Decorate(fmt.Sprintf("router.message(%s)", strings.Join(groupFilters(ctx, n, syns[0]), ", "))))
	}
	return out
}
