// Package emit turns nodes of a resolved bot graph into Python source
// statements. Each node family has its own emitter; all of them are pure
// functions of the node and a read-only Context.
package emit

import (
	"fmt"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

// Fragment is the source produced for one node.
type Fragment struct {
	NodeID string
	// Screen holds the show_ function a user is routed to through go_to.
	Screen []pysrc.Stmt
	// Handlers holds the decorated entry handlers (commands, synonyms, admin actions).
	Handlers []pysrc.Stmt
}

// Stmts returns the screen followed by the handlers.
func (f *Fragment) Stmts() []pysrc.Stmt {
	out := make([]pysrc.Stmt, 0, len(f.Screen)+len(f.Handlers))
	out = append(out, f.Screen...)
	return append(out, f.Handlers...)
}

// Emitter produces the fragment of one node type.
type Emitter interface {
	Emit(n *domain.Node, ctx *Context) (*Fragment, error)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(n *domain.Node, ctx *Context) (*Fragment, error)

// Emit implements Emitter.
func (f EmitterFunc) Emit(n *domain.Node, ctx *Context) (*Fragment, error) {
	return f(n, ctx)
}

// For returns the emitter responsible for a node type.
func For(t domain.NodeType) (Emitter, error) {
	switch t {
	case domain.NodeTypeStart, domain.NodeTypeCommand, domain.NodeTypeMessage, domain.NodeTypeKeyboard:
		return EmitterFunc(emitContentNode), nil
	case domain.NodeTypePhoto, domain.NodeTypeVideo, domain.NodeTypeAudio, domain.NodeTypeDocument,
		domain.NodeTypeAnimation, domain.NodeTypeSticker, domain.NodeTypeVoice:
		return EmitterFunc(emitMediaNode), nil
	case domain.NodeTypeCondition:
		return EmitterFunc(emitConditionNode), nil
	case domain.NodeTypeInput:
		return EmitterFunc(emitInputNode), nil
	case domain.NodeTypePoll:
		return EmitterFunc(emitPollNode), nil
	case domain.NodeTypeDice:
		return EmitterFunc(emitDiceNode), nil
	case domain.NodeTypeLocation:
		return EmitterFunc(emitLocationNode), nil
	case domain.NodeTypeContact:
		return EmitterFunc(emitContactNode), nil
	case domain.NodeTypePinMessage, domain.NodeTypeUnpinMessage, domain.NodeTypeDeleteMessage:
		return EmitterFunc(emitModerationNode), nil
	case domain.NodeTypeBanUser, domain.NodeTypeUnbanUser, domain.NodeTypeMuteUser, domain.NodeTypeUnmuteUser,
		domain.NodeTypeKickUser, domain.NodeTypePromoteUser, domain.NodeTypeDemoteUser, domain.NodeTypeAdminRights:
		return EmitterFunc(emitUserAdminNode), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNodeType, t)
}

// Emit dispatches a node to its emitter. Every failure, including a node
// whose data could not be decoded, is returned as an *EmitError.
func Emit(n *domain.Node, ctx *Context) (*Fragment, error) {
	if n.DecodeErr != nil {
		return nil, newEmitError(n, n.DecodeErr)
	}
	e, err := For(n.Type)
	if err != nil {
		return nil, newEmitError(n, err)
	}
	frag, err := e.Emit(n, ctx)
	if err != nil {
		return nil, newEmitError(n, err)
	}
	return frag, nil
}

// Placeholder is the commented stand-in for a node that failed to emit.
func Placeholder(n *domain.Node, err error) []pysrc.Stmt {
	return []pysrc.Stmt{
		pysrc.Comment(fmt.Sprintf("node %q (%s) was not generated:\n%v", n.ID, n.Type, err)),
	}
}
