// Package formatter renders aligned markdown tables for terminal reports.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"tweetnorm/pkg/utils"
)

// MaxCellWidth bounds the display width of one cell.
const MaxCellWidth = 60

// Alignment of a column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table is a markdown table. Cells are laid out by display width so wide
// (e.g. CJK) characters line up.
type Table struct {
	Header []string
	Align  []Alignment
	Rows   [][]string
}

// NewTable creates a table with left-aligned columns.
func NewTable(header ...string) *Table {
	return &Table{Header: header, Align: make([]Alignment, len(header))}
}

// SetAlign sets the alignment of column i.
func (t *Table) SetAlign(i int, a Alignment) {
	if i >= 0 && i < len(t.Align) {
		t.Align[i] = a
	}
}

// AddRow appends a row; missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Markdown renders the table, one line per row, with a trailing newline.
func (t *Table) Markdown() string {
	colCount := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	if colCount == 0 {
		return ""
	}

	table := make([][]string, 0, len(t.Rows)+1)
	table = append(table, cleanRow(t.Header, colCount))

	for _, row := range t.Rows {
		table = append(table, cleanRow(row, colCount))
	}

	// Minimum width of 3 keeps the separator a valid "---".
	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = 3
	}

	for _, row := range table {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	var sb strings.Builder

	writeRow(&sb, table[0], colWidths, t.alignments(colCount))
	writeSeparator(&sb, colWidths, t.alignments(colCount))

	for _, row := range table[1:] {
		writeRow(&sb, row, colWidths, t.alignments(colCount))
	}

	return sb.String()
}

func (t *Table) alignments(n int) []Alignment {
	out := make([]Alignment, n)
	copy(out, t.Align)

	return out
}

func cleanRow(row []string, n int) []string {
	strs := utils.NewStringHelper()
	out := make([]string, n)

	for i := 0; i < n && i < len(row); i++ {
		cell := strings.ReplaceAll(strs.NormalizeWhitespace(row[i]), "|", `\|`)
		if runewidth.StringWidth(cell) > MaxCellWidth {
			cell = runewidth.Truncate(cell, MaxCellWidth, "...")
		}

		out[i] = cell
	}

	return out
}

func writeRow(sb *strings.Builder, row []string, widths []int, align []Alignment) {
	sb.WriteString("|")

	for j, cell := range row {
		sb.WriteString(" ")

		padding := strings.Repeat(" ", widths[j]-runewidth.StringWidth(cell))
		if align[j] == AlignRight {
			sb.WriteString(padding + cell)
		} else {
			sb.WriteString(cell + padding)
		}

		sb.WriteString(" |")
	}

	sb.WriteString("\n")
}

func writeSeparator(sb *strings.Builder, widths []int, align []Alignment) {
	sb.WriteString("|")

	for j, w := range widths {
		sb.WriteString(" ")

		if align[j] == AlignRight {
			sb.WriteString(strings.Repeat("-", w-1) + ":")
		} else {
			sb.WriteString(strings.Repeat("-", w))
		}

		sb.WriteString(" |")
	}

	sb.WriteString("\n")
}
