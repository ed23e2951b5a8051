package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode
// and TTY detection.
func shouldColorize(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// Notifier writes short user-visible notices, colored when the
// destination is a terminal. It satisfies the model cache's notifier
// interface.
type Notifier struct {
	w    io.Writer
	mode ColorMode
}

// NewNotifier creates a Notifier writing to w, usually os.Stderr so
// notices never contaminate piped output.
func NewNotifier(w io.Writer, mode ColorMode) *Notifier {
	return &Notifier{w: w, mode: mode}
}

// Notify writes one notice line.
func (n *Notifier) Notify(message string) {
	if shouldColorize(n.mode, n.w) {
		fmt.Fprintf(n.w, "%sredraft: %s%s\n", colorYellow, message, colorReset)
		return
	}
	fmt.Fprintf(n.w, "redraft: %s\n", message)
}
