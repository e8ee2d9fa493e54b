package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the botsmith banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"  _           _                 _ _   _     ", "#38bdf8"},
		{" | |__   ___ | |_ ___ _ __ ___ (_) |_| |__  ", "#22d3ee"},
		{" | '_ \\ / _ \\| __/ __| '_ ` _ \\| | __| '_ \\ ", "#2dd4bf"},
		{" | |_) | (_) | |_\\__ \\ | | | | | | |_| | | |", "#34d399"},
		{" |_.__/ \\___/ \\__|___/_| |_| |_|_|\\__|_| |_|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
