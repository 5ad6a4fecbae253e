package xlcap

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an identifier is not bound in the layout map.
var ErrNotFound = errors.New("reference not found")

// ErrTableNotRegistered indicates a table was referenced before RegisterTable.
var ErrTableNotRegistered = errors.New("table not registered")

// ErrDuplicate indicates a strict-mode layout map saw a second registration for a key.
var ErrDuplicate = errors.New("duplicate registration")

// ErrInvalidTable indicates table geometry that cannot be laid out.
var ErrInvalidTable = errors.New("invalid table")

// ErrNotFEO indicates input that is not an object with is_calculated == true.
var ErrNotFEO = errors.New("not a valid FEO")

// ErrUnknownRefType indicates a dependency with an unsupported reference_type.
var ErrUnknownRefType = errors.New("unknown reference type")

// ErrOutsideTable indicates a current-row table reference used from a cell that is
// not on one of the table's rows.
var ErrOutsideTable = errors.New("current-row reference outside its table")

// ResolveError reports the dependency that stopped a formula from resolving.
type ResolveError struct {
	Placeholder string
	Path        string
	Type        RefType
	Err         error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve placeholder %q (%s %q): %v", e.Placeholder, e.Type, e.Path, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// ErrInvalidInput indicates a cap table that failed validation.
var ErrInvalidInput = errors.New("invalid cap table")
