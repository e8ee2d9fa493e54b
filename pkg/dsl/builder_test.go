package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/botsmith/pkg/domain"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New()

	b.Start("start").
		Text("Hello, DSL!").
		Button("Sign up", "ask_name")

	b.Add("ask_name", domain.NodeTypeInput).
		Text("What is your name?").
		Ask("user_name", "greet").
		Validate(domain.InputText, 2, 32)

	b.Message("greet").
		Text("Nice to meet you, {user_name}!").
		Go("end")

	b.Message("end").
		Text("Goodbye!")

	b.Connect("start", "ask_name")

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if len(g.Nodes) != 4 {
		t.Fatalf("Expected 4 nodes, got %d", len(g.Nodes))
	}
	for i, id := range []string{"start", "ask_name", "greet", "end"} {
		if g.Nodes[i].ID != id {
			t.Errorf("Expected node %d to be %q, got %q", i, id, g.Nodes[i].ID)
		}
	}

	start, _ := g.Node("start")
	if cmd := domain.TriggerOf(start).CommandName(); cmd != "start" {
		t.Errorf("Expected command 'start', got '%s'", cmd)
	}
	content := domain.ContentOf(start)
	if content.MessageText != "Hello, DSL!" {
		t.Errorf("Expected text 'Hello, DSL!', got '%s'", content.MessageText)
	}
	if len(content.Buttons) != 1 || content.Buttons[0].Target != "ask_name" {
		t.Errorf("Expected one button to 'ask_name', got %+v", content.Buttons)
	}

	ask, _ := g.Node("ask_name")
	data, ok := ask.Data.(*domain.InputData)
	if !ok {
		t.Fatalf("Expected *domain.InputData, got %T", ask.Data)
	}
	if data.InputVariable != "user_name" || data.NextNodeAfterInput != "greet" {
		t.Errorf("Unexpected input settings: %+v", data.InputSpec)
	}
	if data.MinLength != 2 || data.MaxLength != 32 {
		t.Errorf("Expected length 2..32, got %d..%d", data.MinLength, data.MaxLength)
	}

	greet, _ := g.Node("greet")
	if target := domain.FlowOf(greet).AutoTarget(); target != "end" {
		t.Errorf("Expected auto-transition to 'end', got '%s'", target)
	}

	if len(g.Connections) != 1 || g.Connections[0].Target != "ask_name" {
		t.Errorf("Unexpected connections: %+v", g.Connections)
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	b.Message("a").Text("first")
	b.Add("a", domain.NodeTypeMessage).Button("more", "a")

	g := b.MustBuild()
	if len(g.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(g.Nodes))
	}
	c := domain.ContentOf(&g.Nodes[0])
	if c.MessageText != "first" || len(c.Buttons) != 1 {
		t.Errorf("Expected both calls to configure the same node, got %+v", c)
	}
}

func TestBuilder_UnsupportedSetter(t *testing.T) {
	b := New()
	b.Add("ban", domain.NodeTypeBanUser).Text("nope")
	b.Add("x", domain.NodeType("teleport"))

	_, err := b.Build()
	if err == nil {
		t.Fatal("Expected Build() to fail")
	}
	if !errors.Is(err, domain.ErrUnknownNodeType) {
		t.Errorf("Expected ErrUnknownNodeType in %v", err)
	}
}

func TestBuilder_MediaAndGroups(t *testing.T) {
	b := New()
	b.Add("pic", domain.NodeTypePhoto).Media("https://example.com/cat.jpg")
	b.Add("mod", domain.NodeTypeBanUser).Command("/ban").InGroup("main")
	b.Group("main", "-1001", "mod")

	g := b.MustBuild()
	pic, _ := g.Node("pic")
	if src := pic.Data.(*domain.MediaData).Source(pic.Type); src != "https://example.com/cat.jpg" {
		t.Errorf("Expected photo source, got '%s'", src)
	}
	if len(g.Groups) != 1 || !g.Groups[0].Contains("mod") {
		t.Errorf("Unexpected groups: %+v", g.Groups)
	}
}
