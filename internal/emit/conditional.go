package emit

import (
	"fmt"

	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/pkg/domain"
)

// emitConditionNode renders a pure branching node: the chain picks a branch,
// and the auto-transition is the default route when none matches.
func emitConditionNode(n *domain.Node, ctx *Context) (*Fragment, error) {
	d, ok := n.Data.(*domain.ConditionData)
	if !ok {
		return nil, fmt.Errorf("%w: want condition data, got %T", domain.ErrMalformedData, n.Data)
	}
	body := ConditionalChain(ctx, n)
	tail := ScreenTail(ctx, n)
	if len(tail) == 0 && d.AutoTarget() == "" {
		tail = []pysrc.Stmt{pysrc.Comment("no branch matched and no default route is configured")}
	}
	body = append(body, tail...)
	return &Fragment{
		NodeID: n.ID,
		Screen: []pysrc.Stmt{ScreenDef(ctx, n, body)},
	}, nil
}
