package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	PrintDiagnostics(&buf, domain.Diagnostics{
		{Severity: domain.SeverityError, Kind: domain.DiagEmitterFailure, NodeID: "poll", Message: "needs two options"},
		{Severity: domain.SeverityWarning, Kind: domain.DiagDanglingReference, NodeID: "start", Message: "points nowhere"},
	})

	out := buf.String()
	assert.Contains(t, out, "emitter_failure")
	assert.Contains(t, out, "poll")
	assert.Contains(t, out, "needs two options")
	assert.Contains(t, out, "1 error(s), 1 warning(s)")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestPrintDiagnostics_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintDiagnostics(&buf, nil)
	assert.Contains(t, buf.String(), "no problems found")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_.__/")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.Zero(t, TerminalWidth(&bytes.Buffer{}))
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(60)
	out, err := render("# Hello\n\nSome **text**.")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
}
