package graph

import (
	"strings"
	"testing"

	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi").Button("Photo", "pic").Button("Lost", "nowhere")
	b.Add("pic", domain.NodeTypePhoto).Media("https://example.com/cat.jpg").Go("ask")
	b.Message("ask").Text("Name?").Ask("name", "done")
	b.Message("done").Text("Bye")
	b.Add("ban", domain.NodeTypeBanUser)
	b.Message("orphan").Text("nobody")
	g := b.MustBuild()

	out := GenerateMermaid(g, resolver.Resolve(g, false))

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `start(("start <br/> /start"))`)
	assert.Contains(t, out, `pic[["pic"]]`)
	assert.Contains(t, out, `ban{{"ban <br/> /ban"}}`)
	assert.Contains(t, out, "start --> pic")
	assert.Contains(t, out, "pic -.-> ask")
	assert.Contains(t, out, `ask -- "input" --> done`)
	assert.Contains(t, out, "class nowhere missing;")
	assert.Contains(t, out, "class orphan unreachable;")
	assert.NotContains(t, out, "class start unreachable;")
}

func TestGenerateMermaid_CutEdge(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi").Go("loop")
	b.Message("loop").Text("Again").Go("loop")
	g := b.MustBuild()

	out := GenerateMermaid(g, resolver.Resolve(g, false))
	assert.Contains(t, out, `loop -. "cut" .-> loop`)
}

func TestGenerateMermaid_Groups(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi")
	b.Message("news").Text("News")
	b.Group("chan", "-100123", "news")

	out := GenerateMermaid(b.MustBuild(), nil)
	assert.Contains(t, out, `subgraph group_chan["chan"]`)
	assert.Contains(t, out, "        news[\"news\"]\n    end\n")
	assert.Equal(t, 1, strings.Count(out, `news["news"]`))
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_NilGraph(t *testing.T) {
	assert.Equal(t, "graph TD\n", GenerateMermaid(nil, nil))
}

func TestSanitizeMermaidID(t *testing.T) {
	assert.Equal(t, "a_b_c_d", sanitizeMermaidID("a-b.c/d"))
	assert.Equal(t, "_", sanitizeMermaidID(""))
}
