package buildsys

import (
	"io"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// IsTerminal reports whether w writes to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Paint colors s when w is a terminal and returns it unchanged otherwise,
// so logs and pipes get plain text.
func Paint(w io.Writer, c color.Color, s string) string {
	if !IsTerminal(w) {
		return s
	}
	return c.Sprint(s)
}
