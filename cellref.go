package xlcap

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/javajack/xlcap/workbook"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CellRef represents a single cell position in a workbook.
type CellRef struct {
	Sheet string // sheet name (empty = current sheet)
	Row   int    // 0-based row index
	Col   int    // 0-based column index
}

// NewCellRef creates a CellRef with explicit sheet, row, col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// ParseCellRef parses a cell reference string like "A1", "Sheet1!B5", "'Cap Table'!$A$1".
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}

	var sheet string
	cellPart := s

	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		sheet = s[:idx]
		if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
			sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
		}
		cellPart = s[idx+1:]
	}

	cellPart = strings.ReplaceAll(cellPart, "$", "")
	if cellPart == "" {
		return CellRef{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	col, row, err := parseCellName(cellPart)
	if err != nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}

	return CellRef{Sheet: sheet, Row: row, Col: col}, nil
}

// parseCellName parses "A1" into col=0, row=0.
func parseCellName(name string) (col, row int, err error) {
	i := 0
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("invalid cell name: %q", name)
	}

	col, err = NameToCol(name[:i])
	if err != nil {
		return 0, 0, err
	}

	rowNum, err := strconv.Atoi(name[i:])
	if err != nil || rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row in cell name: %q", name)
	}
	return col, rowNum - 1, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String formats the CellRef as "Sheet1!A1" or "A1" if no sheet.
func (c CellRef) String() string {
	return CellAddress(c.Sheet, c.Row, c.Col, false)
}

// CellName returns just the cell part like "A1" without sheet name.
func (c CellRef) CellName() string {
	return CellAddress("", c.Row, c.Col, false)
}

// Absolute formats the CellRef as "Sheet1!$A$1".
func (c CellRef) Absolute() string {
	return CellAddress(c.Sheet, c.Row, c.Col, true)
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 701→"ZZ". Negative indexes yield "".
func ColToName(col int) string {
	if col < 0 {
		return ""
	}
	var buf [16]byte
	i := len(buf)
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		i--
		buf[i] = byte('A' + (n-1)%26)
	}
	return string(buf[i:])
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// CellAddress builds "$COL$ROW" (absolute) or "COLROW" from a 0-based row and column,
// prefixed with "Sheet!" when sheet is non-empty.
func CellAddress(sheet string, row, col int, absolute bool) string {
	var b strings.Builder
	if sheet != "" {
		b.WriteString(QuoteSheetName(sheet))
		b.WriteByte('!')
	}
	if absolute {
		b.WriteByte('$')
	}
	b.WriteString(ColToName(col))
	if absolute {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(row + 1))
	return b.String()
}

// QuoteSheetName single-quotes a sheet name unless it is a plain identifier. It is
// the rule the workbook writer uses for defined names and links.
func QuoteSheetName(sheet string) string {
	return workbook.QuoteSheetName(sheet)
}

// SafeSheetName sanitizes a string for use as an Excel sheet name.
// It replaces forbidden characters ([]*?/\:) with underscore and truncates to 31 chars.
func SafeSheetName(name string) string {
	runes := []rune(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?[]`, r) {
			return '_'
		}
		return r
	}, name))
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}

// SafeName turns free text ("Série A") into a string usable as a defined name or
// table name ("Serie_A"). Diacritics are dropped, any other non-word rune becomes
// an underscore and a leading digit is prefixed with an underscore.
func SafeName(s string) string {
	// Chains carry state, so one is built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
