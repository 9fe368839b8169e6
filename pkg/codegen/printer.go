package codegen

import (
	"bytes"
	"strings"
)

// Printer writes C++ text while keeping every construct on the line of the
// source construct it was translated from.
//
// Align moves the write position to a target line: it pads with newlines
// while behind, separates with a space when already on that line, and moves
// to a fresh line when the output has overshot. Preprocessor text always
// gets a line of its own.
type Printer struct {
	output      *bytes.Buffer
	depth       int
	line        int // 1-based line being written
	atLineStart bool
}

// NewPrinter returns an empty printer positioned at line 1.
func NewPrinter() *Printer {
	return &Printer{
		output:      &bytes.Buffer{},
		line:        1,
		atLineStart: true,
	}
}

// String returns the output with exactly one trailing newline.
func (p *Printer) String() string {
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

// Line returns the line currently being written.
func (p *Printer) Line() int { return p.line }

// Align positions the printer for a construct that starts on line.
func (p *Printer) Align(line int) {
	switch {
	case line > p.line:
		for p.line < line {
			p.writeln()
		}
	case line == p.line:
		if !p.atLineStart {
			p.space()
		}
	default:
		if !p.atLineStart {
			p.writeln()
		}
	}
}

// Write appends s, indenting first when at the start of a line. Newlines
// inside s advance the line count.
func (p *Printer) Write(s string) {
	if s == "" {
		return
	}
	if p.atLineStart && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	n := strings.Count(s, "\n")
	p.line += n
	p.atLineStart = n > 0 && s[len(s)-1] == '\n'
}

// OwnLine writes s on a line of its own at the current depth.
func (p *Printer) OwnLine(s string) {
	if !p.atLineStart {
		p.writeln()
	}
	p.Write(s)
	p.writeln()
}

// Directive writes a preprocessor line. Directives are never indented.
func (p *Printer) Directive(s string) {
	if !p.atLineStart {
		p.writeln()
	}
	p.output.WriteString(s)
	p.atLineStart = false
	p.writeln()
}

// Indent and Dedent change the depth used for lines started afterwards.
func (p *Printer) Indent() { p.depth++ }

// Dedent reverses Indent.
func (p *Printer) Dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) writeln() {
	if b := p.output.Bytes(); len(b) > 0 && b[len(b)-1] == ' ' {
		p.output.Truncate(len(b) - 1)
	}
	p.output.WriteByte('\n')
	p.line++
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth; i++ {
		p.output.WriteByte('\t')
	}
	p.atLineStart = false
}

func (p *Printer) space() {
	p.output.WriteByte(' ')
}
