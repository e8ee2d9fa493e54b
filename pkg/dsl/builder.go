package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/botsmith/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	order       []string
	nodes       map[string]*NodeBuilder
	connections []domain.Connection
	groups      []domain.BotGroup
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node of the given type in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string, t domain.NodeType) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id, Type: t},
		builder: b,
	}
	data, err := domain.NewData(t)
	if err != nil {
		nb.err = fmt.Errorf("node %q: %w", id, err)
	}
	nb.node.Data = data
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Start adds the /start entry node.
func (b *Builder) Start(id string) *NodeBuilder {
	return b.Add(id, domain.NodeTypeStart).Command("/start")
}

// Message adds a plain message node.
func (b *Builder) Message(id string) *NodeBuilder {
	return b.Add(id, domain.NodeTypeMessage)
}

// Command adds a node answering a slash command.
func (b *Builder) Command(id, command string) *NodeBuilder {
	return b.Add(id, domain.NodeTypeCommand).Command(command)
}

// Connect adds a visual edge. Edges never drive control flow.
func (b *Builder) Connect(source, target string) *Builder {
	b.connections = append(b.connections, domain.Connection{
		ID:     fmt.Sprintf("%s-%s", source, target),
		Source: source,
		Target: target,
	})
	return b
}

// Group declares a Telegram chat and the nodes scoped to it.
func (b *Builder) Group(id, chatID string, nodeIDs ...string) *Builder {
	b.groups = append(b.groups, domain.BotGroup{ID: id, Name: id, ChatID: chatID, NodeIDs: nodeIDs})
	return b
}

// Build assembles the graph in the order nodes were added.
func (b *Builder) Build() (*domain.Graph, error) {
	g := &domain.Graph{
		Nodes:       make([]domain.Node, 0, len(b.order)),
		Connections: append([]domain.Connection(nil), b.connections...),
		Groups:      append([]domain.BotGroup(nil), b.groups...),
	}
	var errs []error
	for _, id := range b.order {
		nb := b.nodes[id]
		if nb.err != nil {
			errs = append(errs, nb.err)
			continue
		}
		g.Nodes = append(g.Nodes, nb.node)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}

// MustBuild is Build for fixtures; it panics on a configuration error.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
