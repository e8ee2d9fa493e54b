package ports

import (
	"context"
	"errors"
)

// ErrGraphNotFound is returned when a loader has no graph under the requested name.
var ErrGraphNotFound = errors.New("graph not found")

// GraphLoader defines how callers retrieve exported bot graphs.
// This allows the storage layer (FS, Memory) to be decoupled.
type GraphLoader interface {
	// GetGraph retrieves the raw document of a graph by name.
	// It returns the raw bytes (which the compiler will parse) or an error.
	GetGraph(ctx context.Context, name string) ([]byte, error)

	// ListGraphs returns the names of all available graphs, sorted.
	ListGraphs(ctx context.Context) ([]string, error)
}
