package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/botsmith/pkg/ports"
	contract "github.com/aretw0/botsmith/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Contract(t *testing.T) {
	dir := t.TempDir()
	data := map[string][]byte{
		"shop":    []byte(`{"nodes":[]}`),
		"support": []byte("nodes: []\n"),
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.json"), data["shop"], 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "support.yml"), data["support"], 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	contract.GraphLoaderContractTest(t, NewLoader(dir), data)
}

func TestLoader_RejectsPaths(t *testing.T) {
	_, err := NewLoader(t.TempDir()).GetGraph(context.Background(), "../secrets")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrGraphNotFound))
}

func TestLoader_MissingDirectory(t *testing.T) {
	names, err := NewLoader(filepath.Join(t.TempDir(), "missing")).ListGraphs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	w := NewWriter(dir)

	require.NoError(t, w.Write("bot.py", []byte("print('v1')\n")))
	require.NoError(t, w.Write("bot.py", []byte("print('v2')\n")))
	require.NoError(t, w.Write(".env", []byte("BOT_TOKEN=x\n")))

	got, err := os.ReadFile(filepath.Join(dir, "bot.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('v2')\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")

	assert.Error(t, w.Write("../escape.py", nil))
}
