// Package diag implements Bite's diagnostic model: diagnostics are
// values, not exceptions. Every pipeline stage accumulates Diagnostics into a
// Bag instead of stopping at the first problem; the analyzer in particular
// keeps going after an error to surface as many independent mistakes as
// possible in one pass.
package diag

import (
	"fmt"
	"strings"

	"github.com/bite-lang/bite/internal/token"
)

// Level is a diagnostic's severity.
type Level int

const (
	Warning Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "warning"
}

// Hint is a secondary annotation attached to a Diagnostic, e.g. pointing at
// a prior declaration in a "duplicate declaration" error. Unresolved-name
// errors carry no spelling-suggestion hint.
type Hint struct {
	Span    token.Span
	Message string
	Level   Level
}

// Diagnostic is one reported problem: a level, a message, the source span
// it applies to, and any secondary hints.
type Diagnostic struct {
	Level       Level
	Message     string
	Span        token.Span
	InlineHints []Hint
	Category    string // "lex" | "parse" | "analysis" | "runtime"
}

// Format renders d with a source-line + caret indicator. color enables ANSI
// escapes; the CLI decides color by checking whether stdout is a terminal.
func (d Diagnostic) Format(source string, color bool) string {
	var sb strings.Builder

	pos := d.Span.Start
	if pos.File != "" {
		fmt.Fprintf(&sb, "%s: %s:%d:%d: %s\n", d.Level, pos.File, pos.Line, pos.Column, d.Message)
	} else {
		fmt.Fprintf(&sb, "%s: %d:%d: %s\n", d.Level, pos.Line, pos.Column, d.Message)
	}

	if line := sourceLine(source, pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+max0(pos.Column-1)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	for _, h := range d.InlineHints {
		fmt.Fprintf(&sb, "  %s: %s\n", h.Level, h.Message)
	}

	return sb.String()
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Bag accumulates diagnostics across a pipeline stage.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) { b.items = append(b.items, d) }

// Errorf is a convenience for adding an Error-level diagnostic.
func (b *Bag) Errorf(category string, span token.Span, format string, args ...any) {
	b.Add(Diagnostic{Level: Error, Category: category, Span: span, Message: fmt.Sprintf(format, args...)})
}

// All returns every accumulated diagnostic, in insertion order.
func (b *Bag) All() []Diagnostic { return b.items }

// HasErrors reports whether any accumulated diagnostic is Error level: an
// error at any stage prevents the later stages from running against the
// affected program.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Level == Error {
			return true
		}
	}
	return false
}
