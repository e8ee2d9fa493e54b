package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or 0 when it is not a terminal.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

var severityColors = map[domain.Severity]string{
	domain.SeverityError:   "#ef4444",
	domain.SeverityWarning: "#f59e0b",
	domain.SeverityInfo:    "#38bdf8",
}

// PrintDiagnostics writes one line per diagnostic, coloured by severity
// when w supports it, followed by a summary line.
func PrintDiagnostics(w io.Writer, diags domain.Diagnostics) {
	out := termenv.NewOutput(w)
	counts := make(map[domain.Severity]int)
	for _, d := range diags {
		counts[d.Severity]++
		label := out.String(fmt.Sprintf("%-7s", d.Severity)).Foreground(out.Color(severityColors[d.Severity])).Bold()
		where := ""
		if d.NodeID != "" {
			where = " " + out.String(d.NodeID).Faint().String()
		}
		fmt.Fprintf(w, "%s %s%s: %s\n", label, d.Kind, where, d.Message)
	}

	summary := fmt.Sprintf("%d error(s), %d warning(s)", counts[domain.SeverityError], counts[domain.SeverityWarning])
	if len(diags) == 0 {
		summary = "no problems found"
	}
	fmt.Fprintln(w, out.String(summary).Bold())
}
