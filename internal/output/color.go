package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"todo/internal/tasklist"
)

var ansi = map[tasklist.Color]string{
	tasklist.ColorGray:    "\x1b[90m",
	tasklist.ColorRed:     "\x1b[31m",
	tasklist.ColorGreen:   "\x1b[32m",
	tasklist.ColorYellow:  "\x1b[33m",
	tasklist.ColorBlue:    "\x1b[34m",
	tasklist.ColorMagenta: "\x1b[35m",
	tasklist.ColorCyan:    "\x1b[36m",
}

const reset = "\x1b[0m"

// Paint wraps s in the ANSI sequence for c. ColorNone leaves s as is.
func Paint(s string, c tasklist.Color) string {
	code, ok := ansi[c]
	if !ok {
		return s
	}
	return code + s + reset
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
