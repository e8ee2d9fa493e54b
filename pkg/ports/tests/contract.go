package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/botsmith/pkg/ports"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, setupData map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	// 1. Test GetGraph (Success)
	t.Run("GetGraph_Success", func(t *testing.T) {
		for name, expectedContent := range setupData {
			content, err := loader.GetGraph(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting graph %s: %v", name, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", name, content, expectedContent)
			}
		}
	})

	// 2. Test GetGraph (NotFound)
	t.Run("GetGraph_NotFound", func(t *testing.T) {
		_, err := loader.GetGraph(ctx, "non-existent-graph")
		if !errors.Is(err, ports.ErrGraphNotFound) {
			t.Errorf("expected ErrGraphNotFound for non-existent graph, got %v", err)
		}
	})

	// 3. Test ListGraphs
	t.Run("ListGraphs", func(t *testing.T) {
		names, err := loader.ListGraphs(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing graphs: %v", err)
		}

		if len(names) != len(setupData) {
			t.Errorf("expected %d graphs, got %d", len(setupData), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}

		for name := range setupData {
			if !lookup[name] {
				t.Errorf("graph %s missing from list", name)
			}
		}
	})
}
