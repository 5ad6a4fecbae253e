package xlcap

import (
	"fmt"
	"sort"
	"strings"
)

// Describe returns a human-readable dump of the layout map: named ranges, tables
// with their geometry, and every uuid and pointer binding. Useful for debugging a
// generation run.
func (m *LayoutMap) Describe() string {
	var b strings.Builder

	if named := m.NamedRanges(); len(named) > 0 {
		b.WriteString("Named ranges:\n")
		for _, ref := range named {
			fmt.Fprintf(&b, "  %s = %s\n", ref.Address, CellAddress(ref.Sheet, ref.Row, ref.Col, true))
		}
	}

	if tables := m.Tables(); len(tables) > 0 {
		b.WriteString("Tables:\n")
		for _, t := range tables {
			fmt.Fprintf(&b, "  %s %s!%s rows=%d\n", t.Name, QuoteSheetName(t.Sheet), t.Range(), t.rows)
			fmt.Fprintf(&b, "    columns: %s\n", strings.Join(t.Columns, ", "))
		}
	}

	describeBindings(&b, "UUIDs", m.uuids)
	describeBindings(&b, "Pointers", m.pointers)
	return b.String()
}

// describeBindings writes one sorted section of identifier bindings.
func describeBindings(b *strings.Builder, title string, refs map[string]ExcelReference) {
	if len(refs) == 0 {
		return
	}
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range keys {
		ref := refs[k]
		fmt.Fprintf(b, "  %s -> %s (%s)\n", k, ref.Address, CellAddress(ref.Sheet, ref.Row, ref.Col, true))
	}
}
