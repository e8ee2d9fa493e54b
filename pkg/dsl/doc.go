/*
Package dsl provides a Go DSL for programmatically constructing bot graphs.

It lets callers define a bot with a type-safe, fluent builder instead of
hand-writing the editor's JSON export. This is particularly useful for unit
testing and for generating bots from other Go programs.

Example usage:

	b := dsl.New()

	b.Start("start").
		Text("Welcome!").
		Button("Sign up", "ask_name")

	b.Add("ask_name", domain.NodeTypeInput).
		Text("What is your name?").
		Ask("user_name", "greet")

	b.Message("greet").
		Text("Nice to meet you, {user_name}!")

	graph, err := b.Build()
	// ... pass graph to botsmith.Compile(...)
*/
package dsl
