// Package diag turns pipeline errors into file:line:col diagnostics and
// prints them, with colour when the destination is a terminal.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// Coded is implemented by every stage error of the pipeline.
type Coded interface {
	error
	Code() string
	Position() token.Position
}

// Diagnostic is one reportable problem in a source file.
type Diagnostic struct {
	File    string
	Pos     token.Position
	Code    string
	Message string
	// Line is the offending source line, when known.
	Line string
}

// New builds a diagnostic for err, which may wrap a Coded error. Errors
// without a code (I/O failures, for example) keep their full message.
func New(file string, err error) Diagnostic {
	d := Diagnostic{File: file, Message: err.Error()}

	var coded Coded
	if errors.As(err, &coded) {
		d.Code = coded.Code()
		d.Pos = coded.Position()
		d.Message = detail(coded.Error())
		return d
	}
	d.Message = strings.TrimPrefix(d.Message, file+": ")
	return d
}

// detail drops the "<stage> error at line L, column C: " prefix.
func detail(msg string) string {
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// CodeOf returns the diagnostic code of err, or "".
func CodeOf(err error) string {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// WithSource attaches the offending line from src.
func (d Diagnostic) WithSource(src string) Diagnostic {
	if !d.Pos.IsValid() {
		return d
	}
	lines := strings.Split(src, "\n")
	if d.Pos.Line <= len(lines) {
		d.Line = strings.TrimRight(lines[d.Pos.Line-1], "\r")
	}
	return d
}

// String renders the one-line form: main.tasty:3:7: error[E201]: message.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.File)
	if d.Pos.IsValid() {
		fmt.Fprintf(&b, ":%d:%d", d.Pos.Line, d.Pos.Column)
	}
	b.WriteString(": error")
	if d.Code != "" {
		fmt.Fprintf(&b, "[%s]", d.Code)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// Printer writes diagnostics to a stream.
type Printer struct {
	w        io.Writer
	location lipgloss.Style
	severity lipgloss.Style
	gutter   lipgloss.Style
	caret    lipgloss.Style
}

// NewPrinter returns a printer for w. Colour is used only when w is a
// terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, UseColor(w))
}

func newPrinter(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:        w,
		location: r.NewStyle().Bold(true),
		severity: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		gutter:   r.NewStyle().Foreground(lipgloss.Color("12")),
		caret:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// UseColor reports whether w is a terminal that should get colour.
func UseColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return !termenv.EnvNoColor()
}

// Print writes d, followed by the source line and a caret when known.
func (p *Printer) Print(d Diagnostic) {
	loc := d.File
	if d.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", d.File, d.Pos.Line, d.Pos.Column)
	}
	label := "error"
	if d.Code != "" {
		label = fmt.Sprintf("error[%s]", d.Code)
	}
	_, _ = fmt.Fprintf(p.w, "%s: %s: %s\n", p.location.Render(loc), p.severity.Render(label), d.Message)

	if d.Line == "" {
		return
	}
	num := fmt.Sprintf("%d", d.Pos.Line)
	pad := strings.Repeat(" ", len(num))
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.gutter.Render(num+" |"), d.Line)
	_, _ = fmt.Fprintf(p.w, "%s %s%s\n", p.gutter.Render(pad+" |"), caretIndent(d.Line, d.Pos.Column), p.caret.Render("^"))
}

// caretIndent keeps tabs so the caret lines up under the column.
func caretIndent(line string, column int) string {
	var b strings.Builder
	for i, r := range line {
		if i >= column-1 {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
