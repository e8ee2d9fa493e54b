package botsmith_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/pkg/adapters/memory"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/dsl"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuGraph() *domain.Graph {
	b := dsl.New()
	b.Start("start").Text("Menu").Describe("Open the menu").Button("Name", "ask").Button("Roll", "roll")
	b.Message("ask").Text("Your name?").Ask("name", "hello")
	b.Message("hello").Text("Hello, {name}!")
	b.Add("roll", domain.NodeTypeDice).Configure(func(d domain.NodeData) {
		d.(*domain.DiceData).Emoji = "🎯"
	})
	return b.MustBuild()
}

func TestCompile_Bundle(t *testing.T) {
	bundle, err := botsmith.Compile(context.Background(), menuGraph(),
		botsmith.WithProject("Menu bot", 3),
		botsmith.WithToken("123:abc"),
	)
	require.NoError(t, err)
	assert.Empty(t, bundle.Diagnostics)

	py, ok := bundle.File(botsmith.ProgramFile)
	require.True(t, ok)
	assert.Equal(t, bundle.Program, py.Content)
	assert.Contains(t, bundle.Program, `"""Menu bot`)
	assert.Contains(t, bundle.Program, "PROJECT_ID = 3")
	assert.Contains(t, bundle.Program, `answer_dice(emoji="🎯")`)

	env, ok := bundle.File(botsmith.EnvFile)
	require.True(t, ok)
	assert.Contains(t, env.Content, "BOT_TOKEN=123:abc")

	req, _ := bundle.File(botsmith.RequirementsFile)
	assert.Equal(t, "aiogram>=3.4,<4\n", req.Content)
}

func TestCompile_Deterministic(t *testing.T) {
	opts := []botsmith.Option{botsmith.WithProject("Menu bot", 3), botsmith.WithWorkers(4)}
	first, err := botsmith.Compile(context.Background(), menuGraph(), opts...)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*botsmith.Bundle, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = botsmith.Compile(context.Background(), menuGraph(), opts...)
		}()
	}
	wg.Wait()

	for _, b := range results {
		require.NotNil(t, b)
		if diff := cmp.Diff(first, b); diff != "" {
			t.Fatalf("bundle changed between compiles (-first +got):\n%s", diff)
		}
	}
}

func TestCompile_GeneratedAt(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	bundle, err := botsmith.Compile(context.Background(), menuGraph(), botsmith.WithGeneratedAt(at))
	require.NoError(t, err)
	assert.Contains(t, bundle.Program, "Generated at 2026-10-19 12:00:00 UTC.")
}

func TestCompile_TokenSource(t *testing.T) {
	store := memory.NewTokenStore()
	require.NoError(t, store.SetToken(context.Background(), 9, "9:nine"))

	bundle, err := botsmith.Compile(context.Background(), menuGraph(),
		botsmith.WithProject("Bot", 9),
		botsmith.WithTokenSource(store),
	)
	require.NoError(t, err)
	env, _ := bundle.File(botsmith.EnvFile)
	assert.Contains(t, env.Content, "BOT_TOKEN=9:nine")
	assert.Empty(t, bundle.Diagnostics)
}

func TestCompile_TokenMissing(t *testing.T) {
	bundle, err := botsmith.Compile(context.Background(), menuGraph(),
		botsmith.WithProject("Bot", 10),
		botsmith.WithTokenSource(memory.NewTokenStore()),
	)
	require.NoError(t, err)

	env, _ := bundle.File(botsmith.EnvFile)
	assert.Contains(t, env.Content, "BOT_TOKEN=YOUR_BOT_TOKEN_HERE")
	failures := bundle.Diagnostics.OfKind(domain.DiagCollaboratorFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, domain.SeverityWarning, failures[0].Severity)
	assert.Contains(t, failures[0].Message, "project 10")
}

type slowSource struct{}

func (slowSource) Token(ctx context.Context, _ int64) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCompile_TokenTimeout(t *testing.T) {
	started := time.Now()
	bundle, err := botsmith.Compile(context.Background(), menuGraph(),
		botsmith.WithTokenSource(slowSource{}),
		botsmith.WithTokenTimeout(20*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)

	failures := bundle.Diagnostics.OfKind(domain.DiagCollaboratorFailure)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Message, "deadline exceeded")
}

func TestCompile_Errors(t *testing.T) {
	_, err := botsmith.Compile(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyGraph)

	_, err = botsmith.Compile(context.Background(), menuGraph(), botsmith.WithWorkers(-1))
	assert.ErrorIs(t, err, botsmith.ErrInvalidOption)

	_, err = botsmith.Compile(context.Background(), menuGraph(), botsmith.WithTokenTimeout(-time.Second))
	assert.ErrorIs(t, err, botsmith.ErrInvalidOption)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = botsmith.Compile(ctx, menuGraph())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestValidate(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi").Button("Lost", "nowhere")
	b.Message("loop").Text("again").Go("loop")

	diags, err := botsmith.Validate(context.Background(), b.MustBuild(), botsmith.WithEmitAll(true))
	require.NoError(t, err)
	assert.NotEmpty(t, diags.OfKind(domain.DiagDanglingReference))
	assert.NotEmpty(t, diags.OfKind(domain.DiagAutoTransitionCycle))
}

func TestParse_Sheets(t *testing.T) {
	g, err := botsmith.Parse([]byte(`{"sheets": [
		{"nodes": [{"id": "start", "type": "start", "data": {"command": "/start", "messageText": "one"}}]},
		{"nodes": [{"id": "two", "type": "message", "data": {"messageText": "two"}}]}
	]}`))
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)

	bundle, err := botsmith.Compile(context.Background(), g, botsmith.WithEmitAll(true))
	require.NoError(t, err)
	assert.True(t, strings.Contains(bundle.Program, `"two": show_two,`))
}
