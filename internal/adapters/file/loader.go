package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/botsmith/pkg/ports"
)

var graphExtensions = []string{".json", ".yaml", ".yml"}

// Loader implements ports.GraphLoader over a directory of exported graphs.
// A graph's name is its file name without the extension.
type Loader struct {
	BasePath string
}

// NewLoader creates a Loader reading from basePath.
func NewLoader(basePath string) *Loader {
	if basePath == "" {
		basePath = "."
	}
	return &Loader{BasePath: basePath}
}

// GetGraph reads the document named name, trying each known extension.
func (l *Loader) GetGraph(_ context.Context, name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, fmt.Errorf("invalid graph name %q", name)
	}
	for _, ext := range graphExtensions {
		data, err := os.ReadFile(filepath.Join(l.BasePath, name+ext))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read graph %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ports.ErrGraphNotFound, name)
}

// ListGraphs returns the names of every graph document in the directory.
func (l *Loader) ListGraphs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, known := range graphExtensions {
			if ext != known {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
