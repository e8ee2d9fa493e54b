package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/botsmith/pkg/adapters/memory"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuYAML = `
nodes:
  - id: start
    type: start
    data:
      command: /start
      messageText: Hi
      buttons:
        - text: Next
          target: next
  - id: next
    type: message
    data:
      messageText: Bye
`

func TestHandleCompile(t *testing.T) {
	s := NewServer(nil)

	resp, err := s.handleCompile(context.Background(), mcp.CallToolRequest{}, CompileArgs{
		GraphArgs:   GraphArgs{Graph: menuYAML},
		ProjectName: "Demo",
		ProjectID:   4,
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Program, "PROJECT_ID = 4")
	assert.Len(t, resp.Files, 5)
	assert.NotNil(t, resp.Diagnostics)
}

func TestHandleCompile_StoredGraph(t *testing.T) {
	s := NewServer(memory.NewLoader(map[string]string{"menu": menuYAML}))

	resp, err := s.handleCompile(context.Background(), mcp.CallToolRequest{}, CompileArgs{GraphArgs: GraphArgs{Name: "menu"}})
	require.NoError(t, err)
	assert.Contains(t, resp.Program, `"next": show_next,`)

	_, err = s.handleCompile(context.Background(), mcp.CallToolRequest{}, CompileArgs{GraphArgs: GraphArgs{Name: "ghost"}})
	assert.ErrorIs(t, err, ports.ErrGraphNotFound)
}

func TestHandleCompile_NoGraph(t *testing.T) {
	s := NewServer(nil)
	_, err := s.handleCompile(context.Background(), mcp.CallToolRequest{}, CompileArgs{})
	assert.EqualError(t, err, "either graph or name is required")

	_, err = s.handleCompile(context.Background(), mcp.CallToolRequest{}, CompileArgs{GraphArgs: GraphArgs{Name: "menu"}})
	assert.EqualError(t, err, "no graph store configured")
}

func TestHandleValidate(t *testing.T) {
	s := NewServer(nil)

	resp, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, CompileArgs{GraphArgs: GraphArgs{Graph: `{"nodes": [
		{"id": "start", "type": "start", "data": {"messageText": "Hi", "buttons": [{"text": "x", "target": "ghost"}]}}
	]}`}})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.NotEmpty(t, resp.Diagnostics.OfKind(domain.DiagDanglingReference))
}

func TestLoadGraph_Inline(t *testing.T) {
	s := NewServer(nil)
	g, err := s.loadGraph(context.Background(), GraphArgs{Graph: menuYAML})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
}
