package xlcap

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/javajack/xlcap/config"
	"github.com/javajack/xlcap/model"
	"github.com/javajack/xlcap/workbook"
)

// Row of the header of every table sheet. The sheet title sits on row 0.
const tableStartRow = 2

// Generator lays out a cap table and writes it as a workbook of live formulas.
type Generator struct {
	opts *Options
}

// NewGenerator creates a new Generator with the given options.
func NewGenerator(opts ...Option) *Generator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Generator{opts: o}
}

// Generate reads a cap-table JSON file and writes the workbook to outputPath.
func Generate(inputPath, outputPath string, opts ...Option) error {
	ct, err := model.Load(inputPath)
	if err != nil {
		return err
	}
	return NewGenerator(opts...).GenerateFile(ct, outputPath)
}

// GenerateBytes reads a cap-table JSON file and returns the workbook as bytes.
func GenerateBytes(inputPath string, opts ...Option) ([]byte, error) {
	ct, err := model.Load(inputPath)
	if err != nil {
		return nil, err
	}
	return NewGenerator(opts...).GenerateBytes(ct)
}

// GenerateReader reads a cap-table JSON document from input and writes the workbook
// to output.
func GenerateReader(input io.Reader, output io.Writer, opts ...Option) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("read cap table: %w", err)
	}
	ct, err := model.Decode(data)
	if err != nil {
		return err
	}
	return NewGenerator(opts...).GenerateWriter(ct, output)
}

// GenerateFile writes the workbook for ct to outputPath. A partial file is removed
// on failure.
func (g *Generator) GenerateFile(ct *model.CapTable, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", outputPath, err)
	}
	defer out.Close()

	if err := g.GenerateWriter(ct, out); err != nil {
		os.Remove(outputPath)
		return err
	}
	return nil
}

// GenerateBytes returns the workbook for ct as bytes.
func (g *Generator) GenerateBytes(ct *model.CapTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.GenerateWriter(ct, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateWriter writes the workbook for ct to out through an excelize writer.
func (g *Generator) GenerateWriter(ct *model.CapTable, out io.Writer) error {
	cfg := g.opts.config
	w := workbook.NewExcelizeWriter(
		workbook.WithTableStyle(cfg.TableStyle),
		workbook.WithRecalculateOnOpen(cfg.RecalculateOnOpen),
	)
	defer w.Close()

	if _, err := g.Generate(ct, w); err != nil {
		return err
	}
	if err := w.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Generate lays out ct, resolves every formula against the layout and writes all
// cells to w. It returns the layout map of the run.
func (g *Generator) Generate(ct *model.CapTable, w workbook.Writer) (*LayoutMap, error) {
	r, err := g.Layout(ct)
	if err != nil {
		return nil, err
	}
	if err := r.write(w); err != nil {
		return nil, err
	}
	if g.opts.preWrite != nil {
		if err := g.opts.preWrite(r.layout, w); err != nil {
			return nil, fmt.Errorf("pre-write callback: %w", err)
		}
	}
	r.log.Info("workbook generated",
		"company", ct.Company.Name,
		"tables", len(r.tables),
		"named_ranges", len(r.summary),
		"formulas", r.formulas)
	return r.layout, nil
}

// Layout validates ct and runs the layout phase only: every sheet is planned and
// every identifier registered, but nothing is written.
func (g *Generator) Layout(ct *model.CapTable) (*Run, error) {
	if err := CheckCapTable(ct); err != nil {
		return nil, err
	}
	cfg := g.opts.config
	layout := NewLayoutMap(WithStrict(g.opts.isStrict()))
	r := &Run{
		ct:       ct,
		cfg:      cfg,
		log:      g.opts.logger,
		layout:   layout,
		resolver: NewResolver(layout),
	}
	if err := r.plan(); err != nil {
		return nil, err
	}
	if err := r.register(); err != nil {
		return nil, err
	}
	return r, nil
}

// CheckCapTable runs model and formula validation and joins every error found.
func CheckCapTable(ct *model.CapTable) error {
	var msgs []string
	for _, is := range ct.Validate() {
		msgs = append(msgs, is.String())
	}
	for _, is := range CalculationIssues(ct) {
		if is.Severity == SeverityError {
			msgs = append(msgs, is.String())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalidInput, strings.Join(msgs, "\n  "))
	}
	return nil
}

// CalculationIssues validates the formula encoding objects of every calculation,
// with paths relative to the document root.
func CalculationIssues(ct *model.CapTable) []ValidationIssue {
	var out []ValidationIssue
	for i, c := range ct.Calculations {
		if len(c.Value) == 0 {
			continue
		}
		prefix := fmt.Sprintf("/calculations/%d/value", i)
		issues, err := ValidateDocument(c.Value)
		if err != nil {
			out = append(out, ValidationIssue{Severity: SeverityError, Path: prefix, Message: err.Error()})
			continue
		}
		for _, is := range issues {
			is.Path = prefix + is.Path
			out = append(out, is)
		}
	}
	return out
}

// Run is one generation run: the plans of every sheet and the layout map they were
// registered in. A Run is used by one goroutine.
type Run struct {
	ct       *model.CapTable
	cfg      *config.Config
	log      *slog.Logger
	layout   *LayoutMap
	resolver *Resolver

	summary  []summaryRow
	tables   []*tablePlan
	formulas int
}

// LayoutMap returns the layout map of the run.
func (r *Run) LayoutMap() *LayoutMap { return r.layout }

// register binds every planned cell and table row. It must finish before any
// formula is resolved.
func (r *Run) register() error {
	sheet := r.cfg.Sheets.Summary
	for i, s := range r.summary {
		if s.name != "" {
			if _, err := r.layout.RegisterNamedRange(s.name, sheet, i, summaryValueCol); err != nil {
				return err
			}
		}
		if s.pointer != "" {
			if _, err := r.layout.RegisterCell(s.pointer, sheet, i, summaryValueCol, true); err != nil {
				return err
			}
		}
	}
	for _, t := range r.tables {
		if err := r.layout.RegisterTable(t.name, t.sheet, tableStartRow, 0, t.columns); err != nil {
			return err
		}
		for i, row := range t.rows {
			if err := r.layout.RegisterTableRow(t.name, i, row.uuid, row.pointer); err != nil {
				return err
			}
		}
		r.log.Debug("table laid out", "table", t.name, "sheet", t.sheet, "rows", len(t.rows))
	}
	return nil
}

// write resolves and writes every planned cell.
func (r *Run) write(w workbook.Writer) error {
	sheet := r.cfg.Sheets.Summary
	for i, s := range r.summary {
		if err := w.SetValue(sheet, i, summaryLabelCol, s.label, ""); err != nil {
			return err
		}
		if err := r.writeCell(w, NewCellRef(sheet, i, summaryValueCol), s.cell); err != nil {
			return err
		}
		if s.name != "" {
			if err := w.DefineName(s.name, sheet, i, summaryValueCol); err != nil {
				return err
			}
		}
	}
	if err := r.writeContents(w); err != nil {
		return err
	}
	r.setWidths(w, sheet, summaryContentsCol+1)
	r.log.Debug("sheet written", "sheet", sheet, "rows", len(r.summary))

	for _, t := range r.tables {
		if err := w.SetValue(t.sheet, 0, 0, t.title, ""); err != nil {
			return err
		}
		for i, row := range t.rows {
			for j, c := range row.cells {
				if err := r.writeCell(w, NewCellRef(t.sheet, tableStartRow+1+i, j), c); err != nil {
					return fmt.Errorf("table %q row %d column %q: %w", t.name, i, t.columns[j], err)
				}
			}
		}
		if err := w.AddTable(workbook.TableSpec{
			Name:     t.name,
			Sheet:    t.sheet,
			StartRow: tableStartRow,
			Columns:  t.columns,
			Rows:     len(t.rows),
		}); err != nil {
			return err
		}
		r.setWidths(w, t.sheet, len(t.columns))
		r.log.Debug("sheet written", "sheet", t.sheet, "table", t.name, "rows", len(t.rows))
	}
	return nil
}

// writeContents writes a link to every table sheet next to the summary values.
func (r *Run) writeContents(w workbook.Writer) error {
	sheet := r.cfg.Sheets.Summary
	if err := w.SetValue(sheet, 0, summaryContentsCol, "Sheets", ""); err != nil {
		return err
	}
	for i, t := range r.tables {
		link := workbook.Link{Sheet: t.sheet, Display: t.title}
		if err := w.SetLink(sheet, i+1, summaryContentsCol, link); err != nil {
			return err
		}
	}
	return nil
}

func (r *Run) setWidths(w workbook.Writer, sheet string, cols int) {
	if r.cfg.ColumnWidth <= 0 {
		return
	}
	for c := 0; c < cols; c++ {
		if err := w.SetColumnWidth(sheet, c, r.cfg.ColumnWidth); err != nil {
			r.log.Warn("set column width", "sheet", sheet, "col", c, "err", err)
		}
	}
}

func (r *Run) writeCell(w workbook.Writer, at CellRef, c cell) error {
	if c.formula == nil {
		return w.SetValue(at.Sheet, at.Row, at.Col, c.value, c.format)
	}
	text, err := r.resolver.ResolveAt(c.formula, at)
	if err != nil {
		return fmt.Errorf("resolve formula at %s: %w", at, err)
	}
	r.formulas++
	return w.SetFormula(at.Sheet, at.Row, at.Col, text, c.format)
}
