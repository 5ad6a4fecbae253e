package xlcap

import (
	"fmt"
	"strings"
)

// Resolver turns formula encoding objects into final formula text using a LayoutMap.
// It keeps no state of its own between calls.
type Resolver struct {
	layout *LayoutMap
}

// NewResolver creates a Resolver reading from layout.
func NewResolver(layout *LayoutMap) *Resolver {
	return &Resolver{layout: layout}
}

// ResolveJSON decodes a single FEO and resolves it.
func (r *Resolver) ResolveJSON(data []byte) (string, error) {
	f, err := ParseFEO(data)
	if err != nil {
		return "", err
	}
	return r.Resolve(f)
}

// Resolve substitutes every dependency of f and returns the final formula. Any
// dependency that cannot be resolved fails the whole formula with a *ResolveError.
func (r *Resolver) Resolve(f *Formula) (string, error) {
	return r.resolve(f, nil)
}

// ResolveAt is Resolve for a formula that will be written at cell at. Identifiers
// bound to current-row structured references on another row resolve to absolute
// cell addresses instead.
func (r *Resolver) ResolveAt(f *Formula, at CellRef) (string, error) {
	return r.resolve(f, &at)
}

func (r *Resolver) resolve(f *Formula, at *CellRef) (string, error) {
	if f == nil {
		return "", ErrNotFEO
	}
	if strings.TrimSpace(f.Template) == "" {
		return "", fmt.Errorf("%w: empty formula_string", ErrNotFEO)
	}

	repl := make(map[string]string, len(f.Dependencies))
	for _, d := range f.Dependencies {
		if d.Placeholder == "" || d.Path == "" {
			continue
		}
		addr, err := r.lookup(d, at)
		if err != nil {
			return "", &ResolveError{Placeholder: d.Placeholder, Path: d.Path, Type: d.RefType, Err: err}
		}
		repl[d.Placeholder] = addr
	}

	// Matching is per whole token, so a placeholder that prefixes another
	// ("amount", "amount_total") can never clip it.
	out, err := SubstituteTokens(f.Template, repl)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", f.Template, err)
	}
	return WrapSafeDivision(out), nil
}

func (r *Resolver) lookup(d Dependency, at *CellRef) (string, error) {
	switch d.RefType {
	case RefNamedRange, RefUUIDLookup, RefCell, "":
		return r.byID(d.Path, at)
	case RefStructured:
		if strings.Contains(d.Path, "[") {
			return d.Path, nil
		}
		table, column, ok := strings.Cut(d.Path, ".")
		if !ok {
			return r.byID(d.Path, at)
		}
		if ref, found := r.layout.StructuredReference(table, column, true); found {
			if at != nil && !r.onTableRow(table, *at) {
				return "", fmt.Errorf("%w: %s used at %s", ErrOutsideTable, d.Path, *at)
			}
			return ref, nil
		}
		// "{uuid}.{column}" keys also contain a dot.
		return r.byID(d.Path, at)
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownRefType, d.RefType)
	}
}

// onTableRow reports whether at is on the sheet of table and in one of its data rows,
// where a current-row reference has a single row to read.
func (r *Resolver) onTableRow(table string, at CellRef) bool {
	t, ok := r.layout.Table(table)
	if !ok || t.Sheet != at.Sheet {
		return false
	}
	rows := max(t.Rows(), 1)
	return at.Row > t.StartRow && at.Row <= t.StartRow+rows
}

func (r *Resolver) byID(id string, at *CellRef) (string, error) {
	var (
		addr string
		ok   bool
	)
	if at != nil {
		addr, ok = r.layout.ResolveFrom(id, *at)
	} else {
		addr, ok = r.layout.ResolveReference(id)
	}
	if !ok {
		return "", ErrNotFound
	}
	return addr, nil
}
