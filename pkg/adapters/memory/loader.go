package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/ports"
)

// Loader implements ports.GraphLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	graphs map[string][]byte
	mu     sync.RWMutex
}

// NewLoader creates a new Loader with the provided raw documents (JSON or YAML strings).
func NewLoader(data map[string]string) *Loader {
	graphs := make(map[string][]byte, len(data))
	for k, v := range data {
		graphs[k] = []byte(v)
	}
	return &Loader{graphs: graphs}
}

// Put stores a graph under name, serializing it to JSON.
// This handles serialization automatically, improving DX for tests.
func (l *Loader) Put(name string, g *domain.Graph) error {
	if name == "" {
		return fmt.Errorf("graph name cannot be empty")
	}
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal graph %s: %w", name, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.graphs[name] = data
	return nil
}

// GetGraph retrieves the raw document of a graph by name.
func (l *Loader) GetGraph(_ context.Context, name string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	content, ok := l.graphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrGraphNotFound, name)
	}
	return content, nil
}

// ListGraphs returns all available graph names.
func (l *Loader) ListGraphs(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.graphs))
	for k := range l.graphs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
