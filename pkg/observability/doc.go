/*
Package observability exposes compiler activity as Prometheus metrics.

A Metrics value turns the compiler's lifecycle hooks into counters and
histograms. Register it once and pass its hooks to every compilation:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	bundle, err := botsmith.Compile(ctx, graph, botsmith.WithHooks(m.Hooks()))
*/
package observability
