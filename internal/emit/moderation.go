package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

func emitModerationNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.ModerationData)
	if !ok {
		return nil, fmt.Errorf("%w: want moderation data, got %T", domain.ErrMalformedData, n.Data)
	}

	var calls []pysrc.Stmt
	needsReply := true
	verb := ""
	success := d.SuccessText
	switch n.Type {
	case domain.NodeTypePinMessage:
		verb = "pin"
		calls = append(calls, pysrc.L("await message.bot.pin_chat_message(chat_id=message.chat.id, message_id=message.reply_to_message.message_id, disable_notification=%s)", pysrc.Bool(d.DisableNotification)))
		if success == "" {
			success = "Message pinned."
		}
	case domain.NodeTypeUnpinMessage:
		verb = "unpin"
		if d.UnpinAll {
			needsReply = false
			calls = append(calls, pysrc.Line("await message.bot.unpin_all_chat_messages(chat_id=message.chat.id)"))
		} else {
			calls = append(calls, pysrc.Line("await message.bot.unpin_chat_message(chat_id=message.chat.id, message_id=message.reply_to_message.message_id)"))
		}
		if success == "" {
			success = "Message unpinned."
		}
	case domain.NodeTypeDeleteMessage:
		verb = "delete"
		calls = append(calls,
			pysrc.Line("await message.bot.delete_message(chat_id=message.chat.id, message_id=message.reply_to_message.message_id)"),
			pysrc.Line("await message.delete()"),
		)
	default:
		return nil, fmt.Errorf("%w: %q is not a moderation action", domain.ErrUnknownNodeType, n.Type)
	}
	if strings.TrimSpace(success) != "" {
		calls = append(calls, pysrc.L("await message.answer(%s)", pysrc.Quote(success)))
	}

	guarded := []pysrc.Stmt{
		pysrc.NewIf("not await is_chat_admin(message.bot, message.chat.id, user_id)",
			pysrc.Line(`await message.answer("Only chat administrators can use this command.")`),
			pysrc.Line("return"),
		),
	}
	if needsReply {
		guarded = append(guarded, pysrc.NewIf("message.reply_to_message is None",
			pysrc.L("await message.answer(%s)", pysrc.Quote(fmt.Sprintf("Reply to the message you want to %s.", verb))),
			pysrc.Line("return"),
		))
	}
	guarded = append(guarded, pysrc.NewTry(calls...).
		Catch("TelegramForbiddenError",
			pysrc.Line(`await message.answer("I lack the rights to do that. Make me an administrator with the needed permissions.")`),
		).
		Catch("TelegramBadRequest as e",
			pysrc.L("logger.warning(\"%s failed: %%s\", e.message)", verb),
			pysrc.Line(`await message.answer(f"Telegram refused the action: {e.message}")`),
		).
		Catch("Exception",
			pysrc.L("logger.exception(\"%s failed\")", verb),
			pysrc.Line("await message.answer(GENERIC_ERROR_TEXT)"),
		))
	body := []pysrc.Stmt{
		pysrc.Line("user_id = message.from_user.id"),
		Guard("message.answer", guarded...),
	}
	if ctx.CommentsEnabled {
		body = append([]pysrc.Stmt{pysrc.Comment(fmt.Sprintf("%s node %q", n.Type, n.ID))}, body...)
	}

	return &Fragment{NodeID: n.ID, Handlers: actionHandlers(ctx, n, body)}, nil
}
