package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuGraph = `nodes:
  - id: start
    type: start
    data:
      command: /start
      messageText: Hi
      buttons:
        - text: Next
          target: next
  - id: next
    type: message
    data:
      messageText: Bye
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeGraph(t *testing.T, content string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir, path
}

func TestCompileCommand(t *testing.T) {
	dir, path := writeGraph(t, menuGraph)
	out := filepath.Join(dir, "dist")
	cfg := filepath.Join(dir, "botsmith.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("project:\n  name: Menu\n  id: 2\n"), 0o644))

	stdout, err := run(t, "compile", path, "-o", out, "--config", cfg, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 5 files")

	for _, name := range []string{"bot.py", "requirements.txt", "README.md", "Dockerfile", ".env"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	program, err := os.ReadFile(filepath.Join(out, "bot.py"))
	require.NoError(t, err)
	assert.Contains(t, string(program), "PROJECT_ID = 2")
}

func TestValidateCommand(t *testing.T) {
	dir, path := writeGraph(t, menuGraph)
	stdout, err := run(t, "validate", path, "--config", filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "no problems found")
}

func TestGraphCommand(t *testing.T) {
	dir, path := writeGraph(t, menuGraph)
	stdout, err := run(t, "graph", path, "--config", filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "start --> next")
}

func TestTokenCommand_NoStore(t *testing.T) {
	dir, _ := writeGraph(t, menuGraph)
	_, err := run(t, "token", "get", "1", "--config", filepath.Join(dir, "none.yaml"))
	assert.ErrorIs(t, err, errNoTokenStore)
}

func TestParseProjectID(t *testing.T) {
	id, err := parseProjectID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseProjectID("-1")
	assert.Error(t, err)
	_, err = parseProjectID("abc")
	assert.Error(t, err)
}
