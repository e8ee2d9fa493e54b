package emit

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

// mediaSenders maps media node types to the Message method and its file argument.
var mediaSenders = map[domain.NodeType][2]string{
	domain.NodeTypePhoto:     {"answer_photo", "photo"},
	domain.NodeTypeVideo:     {"answer_video", "video"},
	domain.NodeTypeAudio:     {"answer_audio", "audio"},
	domain.NodeTypeDocument:  {"answer_document", "document"},
	domain.NodeTypeAnimation: {"answer_animation", "animation"},
	domain.NodeTypeSticker:   {"answer_sticker", "sticker"},
	domain.NodeTypeVoice:     {"answer_voice", "voice"},
}

func emitMediaNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.MediaData)
	if !ok {
		return nil, fmt.Errorf("%w: want media data, got %T", domain.ErrMalformedData, n.Data)
	}
	sender, ok := mediaSenders[n.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a media type", domain.ErrUnknownNodeType, n.Type)
	}

	body := ConditionalChain(ctx, n)
	source := strings.TrimSpace(d.Source(n.Type))
	if source == "" {
		body = append(body, pysrc.Comment(fmt.Sprintf("no %s file configured; sending the text only", sender[1])))
		body = append(body, SendText(ctx, d.MessageText, d.ParseMode(), nodeKeyboard(n, &d.Content))...)
	} else {
		kb, markup := Keyboard(ctx, nodeKeyboard(n, &d.Content))
		body = append(body, kb...)
		caption := d.MessageText
		if caption == "" && n.Type == domain.NodeTypeDocument {
			caption = d.DocumentName
		}
		args := fmt.Sprintf("%s=%s", sender[1], pysrc.Quote(source))
		if n.Type == domain.NodeTypeSticker {
			body = append(body, pysrc.L("await message.%s(%s%s)", sender[0], args, markupArg(markup)))
			if strings.TrimSpace(caption) != "" {
				body = append(body, pysrc.L("await message.answer(%s%s)", TextExpr(caption), parseModeArg(d.ParseMode())))
			}
		} else {
			if strings.TrimSpace(caption) != "" {
				args += ", caption=" + TextExpr(caption)
			}
			body = append(body, pysrc.L("await message.%s(%s%s%s)", sender[0], args, markupArg(markup), parseModeArg(d.ParseMode())))
		}
	}
	body = append(body, ScreenTail(ctx, n)...)

	return &Fragment{
		NodeID:   n.ID,
		Screen:   []pysrc.Stmt{ScreenDef(ctx, n, body)},
		Handlers: EntryHandlers(ctx, n),
	}, nil
}
