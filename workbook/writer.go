// Package workbook writes generated cap-table cells to an xlsx file.
package workbook

import "io"

// Writer receives laid-out cells, tables and names. Rows and columns are 0-based.
type Writer interface {
	SetValue(sheet string, row, col int, value any, format string) error
	SetFormula(sheet string, row, col int, formula, format string) error
	SetLink(sheet string, row, col int, link Link) error
	AddTable(spec TableSpec) error
	DefineName(name, sheet string, row, col int) error
	SetColumnWidth(sheet string, col int, width float64) error
	Write(w io.Writer) error
	Close() error
}

// TableSpec describes a table whose header row and data rows are already written.
type TableSpec struct {
	Name     string
	Sheet    string
	StartRow int // header row
	StartCol int
	Columns  []string
	Rows     int // data rows; an empty table still spans one
}

// Link is an in-workbook hyperlink shown as Display.
type Link struct {
	Sheet   string
	Row     int
	Col     int
	Display string
}

// String returns the display text, falling back to the target sheet.
func (l Link) String() string {
	if l.Display != "" {
		return l.Display
	}
	return l.Sheet
}
