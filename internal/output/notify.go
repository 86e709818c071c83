package output

import (
	"fmt"
	"io"

	"todo/internal/tasklist"
)

// Notifier prints mutation confirmations to out and failures to errOut.
type Notifier struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
	color  bool
}

// NewNotifier creates a notifier. Quiet suppresses confirmations only.
func NewNotifier(out, errOut io.Writer, quiet, color bool) *Notifier {
	return &Notifier{out: out, errOut: errOut, quiet: quiet, color: color}
}

// Success prints "<title>: <description>".
func (n *Notifier) Success(title, description string) {
	if n.quiet {
		return
	}
	if n.color {
		title = Paint(title, tasklist.ColorGreen)
	}
	fmt.Fprintf(n.out, "%s: %s\n", title, description)
}

// Failure prints "error: <title>: <description>".
func (n *Notifier) Failure(title, description string) {
	fmt.Fprintf(n.errOut, "error: %s: %s\n", title, description)
}
