package botsmith_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/pkg/dsl"
)

// ExampleCompile demonstrates how to compile a graph built with the DSL.
func ExampleCompile() {
	// 1. Define the bot: /start shows a menu with one button.
	b := dsl.New()
	b.Start("start").
		Text("Hello! What do you want to do?").
		Button("About", "about")
	b.Message("about").
		Text("This bot was built with botsmith.")

	graph, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Compile it
	bundle, err := botsmith.Compile(context.Background(), graph, botsmith.WithProject("Demo", 1))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Inspect the output
	for _, f := range bundle.Files {
		fmt.Println(f.Name)
	}
	fmt.Println("diagnostics:", len(bundle.Diagnostics))

	// Output:
	// bot.py
	// requirements.txt
	// README.md
	// Dockerfile
	// .env
	// diagnostics: 0
}

// ExampleParse demonstrates how to load the editor's JSON export.
func ExampleParse() {
	graph, err := botsmith.Parse([]byte(`{
		"nodes": [
			{"id": "start", "type": "start", "data": {"command": "/start", "messageText": "Hi"}}
		]
	}`))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(graph.Nodes[0])

	// Output:
	// start(start)
}
