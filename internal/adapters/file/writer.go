package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer saves generated files into an output directory.
type Writer struct {
	BasePath string
}

// NewWriter creates a Writer. If basePath is empty, it defaults to "dist".
func NewWriter(basePath string) *Writer {
	if basePath == "" {
		basePath = "dist"
	}
	return &Writer{BasePath: basePath}
}

// Write stores content under name atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (w *Writer) Write(name string, content []byte) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid file name %q", name)
	}

	// Ensure directory exists
	if err := os.MkdirAll(w.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure output directory: %w", err)
	}

	destPath := filepath.Join(w.BasePath, name)

	// 1. Create Temp File
	// we use the same directory to ensure we are on the same filesystem (required for atomic rename)
	tmpFile, err := os.CreateTemp(w.BasePath, "tmp-"+strings.TrimPrefix(name, ".")+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Remove the temp file if it was not renamed
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Atomic Rename
	// On Windows, os.Rename fails if dest exists. We must remove it first.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing %s for overwrite: %w", name, err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", name, err)
	}

	return nil
}
