package validator

import (
	"errors"
	"testing"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGraph(t *testing.T) {
	// Valid graph: start -> a -> b
	b := dsl.New()
	b.Start("start").Text("Hi").Button("A", "a")
	b.Message("a").Text("A").Go("b")
	b.Message("b").Text("B")

	assert.Empty(t, ValidateGraph(b.MustBuild()))
}

func TestValidateGraph_FieldRules(t *testing.T) {
	b := dsl.New()
	b.Start("start").
		Text("Hi").
		Keyboard("sideways").
		AddButton(domain.Button{Action: domain.ActionURL})
	b.Add("loc", domain.NodeTypeLocation).Configure(func(d domain.NodeData) {
		d.(*domain.LocationData).Latitude = 123
	})

	diags := ValidateGraph(b.MustBuild())
	messages := make([]string, 0, len(diags))
	for _, d := range diags {
		assert.Equal(t, domain.DiagInvalidNode, d.Kind)
		assert.Equal(t, domain.SeverityWarning, d.Severity)
		messages = append(messages, d.Message)
	}
	assert.Contains(t, messages, "keyboardType must be one of [none inline reply], got sideways")
	assert.Contains(t, messages, "buttons[0].text is required")
	assert.Contains(t, messages, "buttons[0].url is required when Action url")
	assert.Contains(t, messages, "latitude must be at most 90")
}

func TestValidateGraph_BrokenNodes(t *testing.T) {
	g := &domain.Graph{Nodes: []domain.Node{
		{ID: "x", Type: "teleport"},
		{ID: "y", Type: domain.NodeTypeMessage, DecodeErr: errors.New("bad bag")},
		{Type: domain.NodeTypeMessage, Data: &domain.MessageData{}},
	}}

	diags := ValidateGraph(g)
	require.Len(t, diags, 4)
	assert.True(t, diags.HasErrors())
	assert.Equal(t, "x", diags[0].NodeID)
	assert.Contains(t, diags[0].Message, "unknown node type")
	assert.Contains(t, diags[1].Message, "bad bag")
	assert.Contains(t, diags[2].Message, "has no id")
	assert.Equal(t, domain.SeverityWarning, diags[3].Severity)
	assert.Contains(t, diags[3].Message, "no command node")
}

func TestValidateGraph_Empty(t *testing.T) {
	diags := ValidateGraph(&domain.Graph{})
	require.Len(t, diags, 1)
	assert.True(t, diags.HasErrors())
	assert.Len(t, ValidateGraph(nil), 1)
}

func TestJSONPath(t *testing.T) {
	assert.Equal(t, "buttons[0].text", jsonPath("MessageData.Content.buttons[0].text"))
	assert.Equal(t, "latitude", jsonPath("LocationData.latitude"))
}
