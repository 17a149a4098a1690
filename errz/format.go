package errz

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders structured errors for terminal display.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	colorHeader   = color.New(color.FgRed, color.Bold)
	colorLocation = color.New(color.FgCyan)
	colorGutter   = color.New(color.FgHiBlack)
	colorCaret    = color.New(color.FgHiRed)
	colorStack    = color.New(color.FgHiBlack)
)

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	return c.Sprint(s)
}

// Format renders the error with a header, a location arrow, a gutter-aligned
// source snippet with a caret, and any stack trace.
func (f *Formatter) Format(e *Error) string {
	var b strings.Builder

	b.WriteString(f.paint(colorHeader, fmt.Sprintf("error: %s", e.Kind.String())))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	b.WriteString("\n")

	if !e.Location.IsZero() {
		b.WriteString("  ")
		b.WriteString(f.paint(colorGutter, "-->"))
		b.WriteString(" ")
		b.WriteString(f.paint(colorLocation, e.Location.String()))
		b.WriteString("\n")
	}

	if e.Location.Source != "" {
		gutter := fmt.Sprintf("%4d | ", e.Location.Line)
		b.WriteString(f.paint(colorGutter, gutter))
		b.WriteString(e.Location.Source)
		b.WriteString("\n")
		if e.Location.Column > 0 {
			b.WriteString(f.paint(colorGutter, "     | "))
			b.WriteString(strings.Repeat(" ", e.Location.Column-1))
			b.WriteString(f.paint(colorCaret, "^"))
			b.WriteString("\n")
		}
	}

	if len(e.Stack) > 0 {
		b.WriteString(f.paint(colorStack, FormatStackTrace(e.Stack)))
	}

	return b.String()
}

// FormatAll renders a batch of errors, numbering each one.
func (f *Formatter) FormatAll(errs []*Error) string {
	var b strings.Builder
	for i, e := range errs {
		if len(errs) > 1 {
			b.WriteString(f.paint(colorGutter, fmt.Sprintf("[%d/%d] ", i+1, len(errs))))
		}
		b.WriteString(f.Format(e))
		if i < len(errs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
