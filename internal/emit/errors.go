package emit

import (
	"errors"
	"strings"

	"github.com/aretw0/botsmith/pkg/domain"
)

// ErrEmitFailed is matched by every EmitError.
var ErrEmitFailed = errors.New("botsmith: node emission failed")

// EmitError reports why a node could not be turned into source.
type EmitError struct {
	NodeID   string
	NodeType domain.NodeType
	Cause    error
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	var b strings.Builder
	b.WriteString("botsmith: cannot emit node")
	if e.NodeID != "" {
		b.WriteString(" ")
		b.WriteString(e.NodeID)
	}
	if e.NodeType != "" {
		b.WriteString(" (")
		b.WriteString(string(e.NodeType))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *EmitError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target is ErrEmitFailed.
func (e *EmitError) Is(target error) bool {
	return target == ErrEmitFailed
}

func newEmitError(n *domain.Node, cause error) *EmitError {
	return &EmitError{NodeID: n.ID, NodeType: n.Type, Cause: cause}
}

// IsEmitError reports whether err is or wraps an EmitError.
func IsEmitError(err error) bool {
	var e *EmitError
	return errors.As(err, &e)
}
