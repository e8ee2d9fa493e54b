/*
Package botsmith compiles Telegram bot graphs into runnable Python programs.

A bot is designed as a graph of typed nodes (commands, messages, keyboards,
media, inputs, conditions, polls and chat administration actions) connected by
buttons and automatic transitions. botsmith resolves the implicit state machine
of that graph and emits a single aiogram 3 program plus the files needed to run
it: requirements.txt, README.md, a Dockerfile and a .env template.

# Key Features

  - Deterministic Output: The same graph and options always produce the same bytes.
  - Minimal Programs: Imports, helpers and handlers are emitted only when the graph uses them.
  - Non-fatal Diagnostics: Dangling references, callback conflicts, transition cycles
    and broken nodes are reported next to a program that still runs.
  - Pluggable Ports: Graphs and bot tokens can come from files, memory or Redis.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"os"

		"github.com/aretw0/botsmith"
	)

	func main() {
		data, err := os.ReadFile("bot.json")
		if err != nil {
			log.Fatal(err)
		}
		graph, err := botsmith.Parse(data)
		if err != nil {
			log.Fatal(err)
		}

		bundle, err := botsmith.Compile(context.Background(), graph,
			botsmith.WithProject("Pizza bot", 1),
			botsmith.WithDatabase(true),
		)
		if err != nil {
			log.Fatal(err)
		}
		for _, d := range bundle.Diagnostics {
			fmt.Println(d)
		}
		fmt.Print(bundle.Program)
	}

Graphs can also be built in Go with the fluent builder in pkg/dsl.
*/
package botsmith
