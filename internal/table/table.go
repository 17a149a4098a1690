// Package table renders small aligned text tables for tooling output.
package table

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Alignment controls how cell contents are padded within a column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Table accumulates rows and renders them with a bordered ASCII layout.
// Cells may contain ANSI color sequences; widths are computed on the
// visible characters only.
type Table struct {
	out         io.Writer
	header      []string
	rows        [][]string
	columnAlign []Alignment
	headerAlign []Alignment
}

func NewTable(out io.Writer) *Table {
	return &Table{out: out}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.columnAlign = align
	return t
}

func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = rows
	return t
}

func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// Render writes the table. Rows shorter than the widest row are padded
// with empty cells.
func (t *Table) Render() {
	columns := len(t.header)
	for _, row := range t.rows {
		if len(row) > columns {
			columns = len(row)
		}
	}
	if columns == 0 {
		return
	}

	widths := make([]int, columns)
	for i, cell := range t.header {
		if w := displayWidth(cell); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	border := t.borderLine(widths)
	fmt.Fprintln(t.out, border)
	if len(t.header) > 0 {
		t.writeRow(t.header, widths, t.headerAlign)
		fmt.Fprintln(t.out, border)
	}
	for _, row := range t.rows {
		t.writeRow(row, widths, t.columnAlign)
	}
	fmt.Fprintln(t.out, border)
}

func (t *Table) borderLine(widths []int) string {
	var sb strings.Builder
	for _, w := range widths {
		sb.WriteString("+")
		sb.WriteString(strings.Repeat("-", w+2))
	}
	sb.WriteString("+")
	return sb.String()
}

func (t *Table) writeRow(row []string, widths []int, align []Alignment) {
	var sb strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		a := AlignLeft
		if i < len(align) {
			a = align[i]
		}
		sb.WriteString("| ")
		sb.WriteString(pad(cell, w, a))
		sb.WriteString(" ")
	}
	sb.WriteString("|")
	fmt.Fprintln(t.out, sb.String())
}

func pad(s string, width int, align Alignment) string {
	gap := width - displayWidth(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

// displayWidth counts the visible runes in s, skipping ANSI escape
// sequences of the form ESC [ ... letter.
func displayWidth(s string) int {
	width := 0
	for i := 0; i < len(s); {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		width++
	}
	return width
}
