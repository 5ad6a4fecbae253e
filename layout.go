package xlcap

import (
	"fmt"
	"strings"
)

// RefType classifies how an identifier is addressed in a formula.
type RefType string

const (
	RefNamedRange RefType = "named_range"
	RefStructured RefType = "structured_reference"
	RefCell       RefType = "cell_reference"
	RefUUIDLookup RefType = "uuid_lookup" // only used by FEO dependencies
)

// ExcelReference is the resolved location of one registered identifier.
type ExcelReference struct {
	Type       RefType
	Address    string // string substituted into formulas
	Sheet      string
	Row        int // 0-based
	Col        int // 0-based
	TableName  string
	ColumnName string
}

// Cell returns the physical position of the reference.
func (r ExcelReference) Cell() CellRef {
	return NewCellRef(r.Sheet, r.Row, r.Col)
}

// Table holds the geometry of a registered table. The header sits on StartRow and
// data rows begin at StartRow+1.
type Table struct {
	Name     string
	Sheet    string
	StartRow int
	StartCol int
	Columns  []string

	index map[string]int
	rows  int
}

// ColumnIndex returns the 0-based position of a column within the table.
func (t *Table) ColumnIndex(column string) (int, bool) {
	i, ok := t.index[column]
	return i, ok
}

// Rows returns one past the highest data row index registered so far.
func (t *Table) Rows() int { return t.rows }

// CellOf returns the cell of a column on a data row.
func (t *Table) CellOf(rowIdx int, column string) (CellRef, bool) {
	i, ok := t.index[column]
	if !ok {
		return CellRef{}, false
	}
	return NewCellRef(t.Sheet, t.StartRow+1+rowIdx, t.StartCol+i), true
}

// Range returns the table's area including the header, e.g. "A1:D5". At least one
// data row is always included.
func (t *Table) Range() string {
	rows := t.rows
	if rows < 1 {
		rows = 1
	}
	first := CellAddress("", t.StartRow, t.StartCol, false)
	last := CellAddress("", t.StartRow+rows, t.StartCol+len(t.Columns)-1, false)
	return first + ":" + last
}

// LayoutMap is the deterministic layout map of one workbook generation run. It binds
// uuids, JSON pointers, global names and tables to spreadsheet locations. It is not
// safe for concurrent use; each run owns its own map.
type LayoutMap struct {
	uuids    map[string]ExcelReference
	named    map[string]ExcelReference
	tables   map[string]*Table
	pointers map[string]ExcelReference

	namedOrder []string
	tableOrder []string
	strict     bool
}

// LayoutOption configures a LayoutMap.
type LayoutOption func(*LayoutMap)

// WithStrict makes every register call reject a key that is already bound.
func WithStrict(strict bool) LayoutOption {
	return func(m *LayoutMap) { m.strict = strict }
}

// NewLayoutMap creates an empty LayoutMap.
func NewLayoutMap(opts ...LayoutOption) *LayoutMap {
	m := &LayoutMap{
		uuids:    make(map[string]ExcelReference),
		named:    make(map[string]ExcelReference),
		tables:   make(map[string]*Table),
		pointers: make(map[string]ExcelReference),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Strict reports whether duplicate registrations are rejected.
func (m *LayoutMap) Strict() bool { return m.strict }

// RegisterNamedRange binds a global name to one cell and returns the name. A later
// registration of the same name replaces the earlier one unless the map is strict.
func (m *LayoutMap) RegisterNamedRange(name, sheet string, row, col int) (string, error) {
	if name == "" {
		return "", fmt.Errorf("register named range: empty name")
	}
	if _, exists := m.named[name]; exists {
		if m.strict {
			return "", fmt.Errorf("register named range %q: %w", name, ErrDuplicate)
		}
	} else {
		m.namedOrder = append(m.namedOrder, name)
	}
	m.named[name] = ExcelReference{
		Type:    RefNamedRange,
		Address: name,
		Sheet:   sheet,
		Row:     row,
		Col:     col,
	}
	return name, nil
}

// RegisterTable binds table geometry. Re-registering a name replaces the previous
// geometry unless the map is strict.
func (m *LayoutMap) RegisterTable(name, sheet string, startRow, startCol int, columns []string) error {
	if name == "" {
		return fmt.Errorf("register table: empty name: %w", ErrInvalidTable)
	}
	if len(columns) == 0 {
		return fmt.Errorf("register table %q: no columns: %w", name, ErrInvalidTable)
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return fmt.Errorf("register table %q: empty column name at %d: %w", name, i, ErrInvalidTable)
		}
		if _, dup := index[c]; dup {
			return fmt.Errorf("register table %q: duplicate column %q: %w", name, c, ErrInvalidTable)
		}
		index[c] = i
	}
	if _, exists := m.tables[name]; exists {
		if m.strict {
			return fmt.Errorf("register table %q: %w", name, ErrDuplicate)
		}
	} else {
		m.tableOrder = append(m.tableOrder, name)
	}
	m.tables[name] = &Table{
		Name:     name,
		Sheet:    sheet,
		StartRow: startRow,
		StartCol: startCol,
		Columns:  append([]string(nil), columns...),
		index:    index,
	}
	return nil
}

// RegisterTableRow binds every column of data row rowIdx to a current-row structured
// reference, keyed "{uuid}.{column}" and/or "{pointer}.{column}". Supplying neither
// uuid nor pointer registers nothing.
func (m *LayoutMap) RegisterTableRow(table string, rowIdx int, uuid, pointer string) error {
	t, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("register row %d of table %q: %w", rowIdx, table, ErrTableNotRegistered)
	}
	if rowIdx < 0 {
		return fmt.Errorf("register row %d of table %q: negative row", rowIdx, table)
	}
	if uuid == "" && pointer == "" {
		return nil
	}

	if m.strict {
		for _, col := range t.Columns {
			if _, dup := m.uuids[uuid+"."+col]; uuid != "" && dup {
				return fmt.Errorf("register row %d of table %q: key %q: %w", rowIdx, table, uuid+"."+col, ErrDuplicate)
			}
			if _, dup := m.pointers[pointer+"."+col]; pointer != "" && dup {
				return fmt.Errorf("register row %d of table %q: key %q: %w", rowIdx, table, pointer+"."+col, ErrDuplicate)
			}
		}
	}

	actualRow := t.StartRow + 1 + rowIdx
	for i, col := range t.Columns {
		ref := ExcelReference{
			Type:       RefStructured,
			Address:    currentRowRef(table, col),
			Sheet:      t.Sheet,
			Row:        actualRow,
			Col:        t.StartCol + i,
			TableName:  table,
			ColumnName: col,
		}
		if uuid != "" {
			m.uuids[uuid+"."+col] = ref
		}
		if pointer != "" {
			m.pointers[pointer+"."+col] = ref
		}
	}
	if rowIdx+1 > t.rows {
		t.rows = rowIdx + 1
	}
	return nil
}

// RegisterCell binds an identifier (uuid or pointer) to a single cell in both the
// uuid and pointer maps and returns the address.
func (m *LayoutMap) RegisterCell(id, sheet string, row, col int, absolute bool) (string, error) {
	if id == "" {
		return "", fmt.Errorf("register cell: empty identifier")
	}
	if m.strict {
		_, inUUIDs := m.uuids[id]
		_, inPointers := m.pointers[id]
		if inUUIDs || inPointers {
			return "", fmt.Errorf("register cell %q: %w", id, ErrDuplicate)
		}
	}
	addr := CellAddress(sheet, row, col, absolute)
	ref := ExcelReference{
		Type:    RefCell,
		Address: addr,
		Sheet:   sheet,
		Row:     row,
		Col:     col,
	}
	m.uuids[id] = ref
	m.pointers[id] = ref
	return addr, nil
}

// Lookup returns the reference bound to id, searching named ranges, then uuids,
// then JSON pointers.
func (m *LayoutMap) Lookup(id string) (ExcelReference, bool) {
	if ref, ok := m.named[id]; ok {
		return ref, true
	}
	if ref, ok := m.uuids[id]; ok {
		return ref, true
	}
	if ref, ok := m.pointers[id]; ok {
		return ref, true
	}
	return ExcelReference{}, false
}

// ResolveReference returns the formula address of id.
func (m *LayoutMap) ResolveReference(id string) (string, bool) {
	ref, ok := m.Lookup(id)
	if !ok {
		return "", false
	}
	return ref.Address, true
}

// ResolveFrom resolves id for a formula written at cell at. A current-row structured
// reference only works on its own table row, so from any other row or sheet the
// absolute cell address is returned, sheet-qualified when the sheets differ.
func (m *LayoutMap) ResolveFrom(id string, at CellRef) (string, bool) {
	ref, ok := m.Lookup(id)
	if !ok {
		return "", false
	}
	if ref.Type != RefStructured {
		return ref.Address, true
	}
	if ref.Sheet == at.Sheet && ref.Row == at.Row {
		return ref.Address, true
	}
	sheet := ref.Sheet
	if sheet == at.Sheet {
		sheet = ""
	}
	return CellAddress(sheet, ref.Row, ref.Col, true), true
}

// StructuredReference returns "Table[@[Column]]" when currentRow, else "Table[[Column]]".
func (m *LayoutMap) StructuredReference(table, column string, currentRow bool) (string, bool) {
	t, ok := m.tables[table]
	if !ok {
		return "", false
	}
	if _, ok := t.index[column]; !ok {
		return "", false
	}
	if currentRow {
		return currentRowRef(table, column), true
	}
	return columnRef(table, column), true
}

// TableColumnRange returns the whole-column reference "Table[[Column]]", for
// aggregates such as SUM.
func (m *LayoutMap) TableColumnRange(table, column string) (string, bool) {
	return m.StructuredReference(table, column, false)
}

// Table returns the registered table geometry.
func (m *LayoutMap) Table(name string) (*Table, bool) {
	t, ok := m.tables[name]
	return t, ok
}

// Tables returns the registered tables in registration order.
func (m *LayoutMap) Tables() []*Table {
	out := make([]*Table, 0, len(m.tableOrder))
	for _, name := range m.tableOrder {
		out = append(out, m.tables[name])
	}
	return out
}

// NamedRanges returns the named ranges in registration order, keyed by name.
func (m *LayoutMap) NamedRanges() []ExcelReference {
	out := make([]ExcelReference, 0, len(m.namedOrder))
	for _, name := range m.namedOrder {
		out = append(out, m.named[name])
	}
	return out
}

func currentRowRef(table, column string) string {
	return table + "[@[" + escapeColumn(column) + "]]"
}

func columnRef(table, column string) string {
	return table + "[[" + escapeColumn(column) + "]]"
}

// escapeColumn applies the structured-reference escape character to special
// characters in a column header.
func escapeColumn(column string) string {
	if !strings.ContainsAny(column, "[]#'") {
		return column
	}
	var b strings.Builder
	for _, r := range column {
		if strings.ContainsRune("[]#'", r) {
			b.WriteByte('\'')
		}
		b.WriteRune(r)
	}
	return b.String()
}
