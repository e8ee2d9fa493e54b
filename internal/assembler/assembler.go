// Package assembler builds the complete Python program from a bot graph:
// it resolves the graph, fans node emission out over a bounded worker pool
// and lays the fragments out around the shared runtime sections.
package assembler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/aretw0/botsmith/internal/emit"
	"github.com/aretw0/botsmith/internal/features"
	"github.com/aretw0/botsmith/internal/pysrc"
	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// Meta describes the project a program is generated for.
type Meta struct {
	ProjectID       int64
	ProjectName     string
	DatabaseEnabled bool
	LoggingEnabled  bool
	CommentsEnabled bool
	EmitAll         bool
	// GeneratedAt is printed in the module docstring unless zero.
	GeneratedAt time.Time
}

// Assembler turns graphs into programs. It holds no per-compile state and
// is safe for concurrent use.
type Assembler struct {
	workers int
	logger  *slog.Logger
	hooks   domain.CompileHooks
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWorkers bounds the number of nodes emitted in parallel.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		a.workers = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.CompileHooks) Option {
	return func(a *Assembler) {
		a.hooks = hooks
	}
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers <= 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a
}

// Result is one assembled program with everything derived on the way.
type Result struct {
	Program     string
	Flags       features.Flags
	Resolution  *resolver.Result
	Context     *emit.Context
	Diagnostics domain.Diagnostics
}

type nodeOutput struct {
	stmts  []pysrc.Stmt
	screen bool
	failed *domain.Diagnostic
}

// Assemble compiles the graph. It fails only when ctx is cancelled; every
// problem with the graph itself is reported as a diagnostic.
func (a *Assembler) Assemble(ctx context.Context, g *domain.Graph, meta Meta) (*Result, error) {
	if g == nil {
		return nil, domain.ErrEmptyGraph
	}
	started := time.Now()
	a.fireStart(ctx, meta, len(g.Nodes))

	res := resolver.Resolve(g, meta.EmitAll)
	reachable := make([]domain.Node, 0, len(res.Order))
	for _, id := range res.Order {
		if n, ok := res.Node(id); ok {
			reachable = append(reachable, *n)
		}
	}
	flags := features.Detect(reachable)

	ectx, callbackDiags := emit.NewContext(g, res, flags)
	ectx.ProjectID = meta.ProjectID
	ectx.ProjectName = meta.ProjectName
	ectx.DatabaseEnabled = meta.DatabaseEnabled
	ectx.LoggingEnabled = meta.LoggingEnabled
	ectx.CommentsEnabled = meta.CommentsEnabled

	diags := append(domain.Diagnostics{}, res.Diagnostics...)
	diags = append(diags, callbackDiags...)

	outputs, err := a.emitNodes(ctx, ectx, meta, res.Order)
	if err != nil {
		a.fireEnd(ctx, meta, &domain.CompileEvent{Nodes: len(g.Nodes), Duration: time.Since(started), Failed: true})
		return nil, err
	}

	var nodes []pysrc.Stmt
	var screens []string
	failed := make(map[string]bool)
	for i, out := range outputs {
		nodes = append(nodes, out.stmts...)
		if out.screen {
			screens = append(screens, res.Order[i])
		}
		if out.failed != nil {
			diags = append(diags, *out.failed)
			failed[res.Order[i]] = true
		}
	}
	// placeholders carry no keyboard, so their buttons get no handlers
	ectx.Callbacks.Drop(failed)

	program := a.layout(ectx, meta, nodes, screens)
	for _, d := range diags {
		a.logger.Warn("diagnostic", "kind", d.Kind, "node", d.NodeID, "msg", d.Message)
		a.fireDiagnostic(ctx, meta, d)
	}
	a.fireEnd(ctx, meta, &domain.CompileEvent{
		Nodes:       len(g.Nodes),
		Reachable:   len(res.Order),
		Duration:    time.Since(started),
		Diagnostics: len(diags),
	})

	return &Result{
		Program:     program,
		Flags:       flags,
		Resolution:  res,
		Context:     ectx,
		Diagnostics: diags,
	}, nil
}

// emitNodes runs the emitters in parallel and keeps results by index, so
// the program follows declaration order whatever the scheduling.
func (a *Assembler) emitNodes(ctx context.Context, ectx *emit.Context, meta Meta, ids []string) ([]nodeOutput, error) {
	outputs := make([]nodeOutput, len(ids))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.workers)
	for i, id := range ids {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			n, ok := ectx.Node(id)
			if !ok {
				return fmt.Errorf("resolved node %q is missing from the graph", id)
			}
			began := time.Now()
			frag, err := safeEmit(n, ectx)
			if err != nil {
				a.logger.Debug("node emission failed", "node", n.ID, "type", n.Type, "error", err)
				outputs[i] = nodeOutput{
					stmts: emit.Placeholder(n, err),
					failed: &domain.Diagnostic{
						Severity: domain.SeverityError,
						Kind:     domain.DiagEmitterFailure,
						NodeID:   n.ID,
						Message:  err.Error(),
					},
				}
			} else {
				a.logger.Debug("node emitted", "node", n.ID, "type", n.Type)
				outputs[i] = nodeOutput{stmts: frag.Stmts(), screen: len(frag.Screen) > 0}
			}
			a.fireNode(egctx, meta, n, time.Since(began), err != nil)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// safeEmit turns an emitter panic into an EmitError.
func safeEmit(n *domain.Node, ectx *emit.Context) (frag *emit.Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frag = nil
			err = &emit.EmitError{NodeID: n.ID, NodeType: n.Type, Cause: fmt.Errorf("emitter panic: %v", r)}
		}
	}()
	return emit.Emit(n, ectx)
}

func (a *Assembler) base(meta Meta, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, ProjectID: meta.ProjectID}
}

func (a *Assembler) fireStart(ctx context.Context, meta Meta, nodes int) {
	if a.hooks.OnCompileStart != nil {
		a.hooks.OnCompileStart(ctx, &domain.CompileEvent{EventBase: a.base(meta, domain.EventCompileStart), Nodes: nodes})
	}
}

func (a *Assembler) fireEnd(ctx context.Context, meta Meta, e *domain.CompileEvent) {
	if a.hooks.OnCompileEnd != nil {
		e.EventBase = a.base(meta, domain.EventCompileEnd)
		a.hooks.OnCompileEnd(ctx, e)
	}
}

func (a *Assembler) fireNode(ctx context.Context, meta Meta, n *domain.Node, d time.Duration, failed bool) {
	if a.hooks.OnNodeEmitted != nil {
		a.hooks.OnNodeEmitted(ctx, &domain.NodeEvent{
			EventBase: a.base(meta, domain.EventNodeEmitted),
			NodeID:    n.ID,
			NodeType:  n.Type,
			Duration:  d,
			Failed:    failed,
		})
	}
}

func (a *Assembler) fireDiagnostic(ctx context.Context, meta Meta, d domain.Diagnostic) {
	if a.hooks.OnDiagnostic != nil {
		a.hooks.OnDiagnostic(ctx, &domain.DiagnosticEvent{EventBase: a.base(meta, domain.EventDiagnostic), Diagnostic: d})
	}
}
