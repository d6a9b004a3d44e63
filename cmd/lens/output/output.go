// Package output styles command line results. Colour is only used when the
// writer is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 80

// Printer writes styled verdict lines. Lines are cut to the terminal width;
// piped output is never cut.
type Printer struct {
	w     io.Writer
	tty   bool
	width int

	ok     lipgloss.Style
	fail   lipgloss.Style
	label  lipgloss.Style
	detail lipgloss.Style
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	tty := IsTerminal(w)
	if !tty || termenv.EnvNoColor() {
		r.SetColorProfile(termenv.Ascii)
	}

	width := defaultWidth
	if f, ok := w.(*os.File); ok && tty {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			width = cols
		}
	}

	return &Printer{
		w:      w,
		tty:    tty,
		width:  width,
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		label:  r.NewStyle().Bold(true),
		detail: r.NewStyle().Faint(true),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TTY reports whether the printer writes to a terminal.
func (p *Printer) TTY() bool {
	return p.tty
}

// Width is the usable line width.
func (p *Printer) Width() int {
	return p.width
}

// OK prints a passing verdict.
func (p *Printer) OK(label, detail string) {
	p.line(p.ok.Render("✓"), label, detail)
}

// Fail prints a failing verdict.
func (p *Printer) Fail(label, detail string) {
	p.line(p.fail.Render("✗"), label, detail)
}

func (p *Printer) line(mark, label, detail string) {
	out := mark + " " + p.label.Render(label)
	if detail != "" {
		out += " " + p.detail.Render(detail)
	}
	if p.tty {
		out = Truncate(out, p.width)
	}
	fmt.Fprintln(p.w, out)
}

// Truncate shortens s to width cells, ignoring escape sequences.
func Truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
