package workbook

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// thisRowRe matches a current-row structured reference column, "[@[shares]]".
var thisRowRe = regexp.MustCompile(`\[@\[((?:'.|[^\]'])*)\]\]`)

// futureFnRe matches calls to functions newer than the base file format.
var futureFnRe = regexp.MustCompile(`(^|[^\w.])(DAYS)\(`)

// ExcelizeWriter implements Writer using excelize.
type ExcelizeWriter struct {
	file       *excelize.File
	sheets     map[string]bool // sheets created by this writer
	order      []string
	styleCache map[string]int // number format → style ID
	opts       *Options
}

// Options configures an ExcelizeWriter.
type Options struct {
	tableStyle        string
	recalculateOnOpen bool
}

// Option configures an ExcelizeWriter.
type Option func(*Options)

// WithTableStyle sets the built-in style applied to every table.
func WithTableStyle(style string) Option {
	return func(o *Options) { o.tableStyle = style }
}

// WithRecalculateOnOpen tells the spreadsheet application to compute all formulas
// when the file is opened. Generated formulas carry no cached values.
func WithRecalculateOnOpen(recalc bool) Option {
	return func(o *Options) { o.recalculateOnOpen = recalc }
}

// NewExcelizeWriter creates a writer over a new, empty workbook.
func NewExcelizeWriter(opts ...Option) *ExcelizeWriter {
	o := &Options{tableStyle: "TableStyleMedium2", recalculateOnOpen: true}
	for _, opt := range opts {
		opt(o)
	}
	return &ExcelizeWriter{
		file:       excelize.NewFile(),
		sheets:     make(map[string]bool),
		styleCache: make(map[string]int),
		opts:       o,
	}
}

// ExcelFormula converts generated formula text into the form stored in the file:
// no leading "=", current-row references spelled "[[#This Row],[col]]" and newer
// functions carrying their "_xlfn." prefix.
func ExcelFormula(formula string) string {
	f := strings.TrimPrefix(strings.TrimSpace(formula), "=")
	f = thisRowRe.ReplaceAllString(f, "[[#This Row],[$1]]")
	return futureFnRe.ReplaceAllString(f, "${1}_xlfn.${2}(")
}

func (w *ExcelizeWriter) ensureSheet(sheet string) error {
	if w.sheets[sheet] {
		return nil
	}
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("look up sheet %q: %w", sheet, err)
	}
	if idx < 0 {
		if _, err := w.file.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
	}
	w.sheets[sheet] = true
	w.order = append(w.order, sheet)
	return nil
}

func (w *ExcelizeWriter) style(format string) (int, error) {
	if id, ok := w.styleCache[format]; ok {
		return id, nil
	}
	numFmt := format
	id, err := w.file.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return 0, fmt.Errorf("create number format %q: %w", format, err)
	}
	w.styleCache[format] = id
	return id, nil
}

func (w *ExcelizeWriter) applyFormat(sheet, cell, format string) error {
	if format == "" {
		return nil
	}
	id, err := w.style(format)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(sheet, cell, cell, id)
}

func cellName(row, col int) (string, error) {
	return excelize.CoordinatesToCellName(col+1, row+1)
}

// SetValue writes a literal. A nil value leaves the cell blank but still formatted.
func (w *ExcelizeWriter) SetValue(sheet string, row, col int, value any, format string) error {
	if err := w.ensureSheet(sheet); err != nil {
		return err
	}
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	if value != nil {
		if err := w.file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set value %s!%s: %w", sheet, cell, err)
		}
	}
	return w.applyFormat(sheet, cell, format)
}

// SetFormula writes a formula cell.
func (w *ExcelizeWriter) SetFormula(sheet string, row, col int, formula, format string) error {
	if err := w.ensureSheet(sheet); err != nil {
		return err
	}
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	if err := w.file.SetCellFormula(sheet, cell, ExcelFormula(formula)); err != nil {
		return fmt.Errorf("set formula %s!%s: %w", sheet, cell, err)
	}
	return w.applyFormat(sheet, cell, format)
}

// SetLink writes the link's display text and points the cell at the target.
func (w *ExcelizeWriter) SetLink(sheet string, row, col int, link Link) error {
	if err := w.ensureSheet(sheet); err != nil {
		return err
	}
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	target, err := cellName(link.Row, link.Col)
	if err != nil {
		return err
	}
	if err := w.file.SetCellValue(sheet, cell, link.String()); err != nil {
		return fmt.Errorf("set link %s!%s: %w", sheet, cell, err)
	}
	location := QuoteSheetName(link.Sheet) + "!" + target
	if err := w.file.SetCellHyperLink(sheet, cell, location, "Location"); err != nil {
		return fmt.Errorf("set link %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// AddTable registers a table over cells already written. The header row is
// rewritten from spec.Columns so it always matches the structured references.
func (w *ExcelizeWriter) AddTable(spec TableSpec) error {
	if err := w.ensureSheet(spec.Sheet); err != nil {
		return err
	}
	if len(spec.Columns) == 0 {
		return fmt.Errorf("add table %q: no columns", spec.Name)
	}
	for i, c := range spec.Columns {
		cell, err := cellName(spec.StartRow, spec.StartCol+i)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(spec.Sheet, cell, c); err != nil {
			return fmt.Errorf("add table %q: %w", spec.Name, err)
		}
	}
	rows := spec.Rows
	if rows < 1 {
		rows = 1
	}
	first, err := cellName(spec.StartRow, spec.StartCol)
	if err != nil {
		return err
	}
	last, err := cellName(spec.StartRow+rows, spec.StartCol+len(spec.Columns)-1)
	if err != nil {
		return err
	}
	stripes := true
	if err := w.file.AddTable(spec.Sheet, &excelize.Table{
		Range:          first + ":" + last,
		Name:           spec.Name,
		StyleName:      w.opts.tableStyle,
		ShowRowStripes: &stripes,
	}); err != nil {
		return fmt.Errorf("add table %q: %w", spec.Name, err)
	}
	return nil
}

// DefineName creates a workbook-scoped name for one absolute cell.
func (w *ExcelizeWriter) DefineName(name, sheet string, row, col int) error {
	if err := w.ensureSheet(sheet); err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1, true)
	if err != nil {
		return err
	}
	if err := w.file.SetDefinedName(&excelize.DefinedName{
		Name:     name,
		RefersTo: QuoteSheetName(sheet) + "!" + cell,
	}); err != nil {
		return fmt.Errorf("define name %q: %w", name, err)
	}
	return nil
}

// SetColumnWidth sets the width of one column.
func (w *ExcelizeWriter) SetColumnWidth(sheet string, col int, width float64) error {
	if err := w.ensureSheet(sheet); err != nil {
		return err
	}
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return err
	}
	return w.file.SetColWidth(sheet, name, name, width)
}

// Write removes the unused default sheet, activates the first written sheet and
// writes the workbook to out.
func (w *ExcelizeWriter) Write(out io.Writer) error {
	if len(w.order) > 0 {
		for _, name := range w.file.GetSheetList() {
			if !w.sheets[name] {
				if err := w.file.DeleteSheet(name); err != nil {
					return fmt.Errorf("delete sheet %q: %w", name, err)
				}
			}
		}
		if idx, err := w.file.GetSheetIndex(w.order[0]); err == nil && idx >= 0 {
			w.file.SetActiveSheet(idx)
		}
	}
	if w.opts.recalculateOnOpen {
		recalc := true
		if err := w.file.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &recalc}); err != nil {
			return fmt.Errorf("set calc props: %w", err)
		}
	}
	return w.file.Write(out)
}

// Close closes the underlying excelize file.
func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}

// File returns the underlying excelize file for advanced operations.
func (w *ExcelizeWriter) File() *excelize.File {
	return w.file
}

// Sheets returns the sheets written so far, in creation order.
func (w *ExcelizeWriter) Sheets() []string {
	return append([]string(nil), w.order...)
}

// QuoteSheetName single-quotes a sheet name unless it is a plain identifier: letters,
// digits, "_" and "." not starting with a digit. Embedded quotes are doubled.
func QuoteSheetName(sheet string) string {
	plain := sheet != "" && !unicode.IsDigit(rune(sheet[0]))
	for _, r := range sheet {
		if !(r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			plain = false
			break
		}
	}
	if plain {
		return sheet
	}
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
