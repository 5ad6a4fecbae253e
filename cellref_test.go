package xlcap

import (
	"testing"

	"github.com/javajack/xlcap/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColToName(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{16383, "XFD"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColToName(tt.col), "col %d", tt.col)
	}
	assert.Equal(t, "", ColToName(-1))
}

func TestNameToCol(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"A", 0},
		{"Z", 25},
		{"AA", 26},
		{"zz", 701},
		{"XFD", 16383},
	}
	for _, tt := range tests {
		got, err := NameToCol(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := NameToCol("")
	assert.Error(t, err)
	_, err = NameToCol("A1")
	assert.Error(t, err)
}

func TestColToName_RoundTrip(t *testing.T) {
	for col := 0; col <= 701; col++ {
		got, err := NameToCol(ColToName(col))
		require.NoError(t, err)
		require.Equal(t, col, got)
	}
}

func TestCellAddress(t *testing.T) {
	assert.Equal(t, "Summary!$B$6", CellAddress("Summary", 5, 1, true))
	assert.Equal(t, "A1", CellAddress("", 0, 0, false))
	assert.Equal(t, "$AA$10", CellAddress("", 9, 26, true))
	assert.Equal(t, "'Cap Table'!C3", CellAddress("Cap Table", 2, 2, false))
	assert.Equal(t, "'O''Brien'!$A$1", CellAddress("O'Brien", 0, 0, true))
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "Ledger", QuoteSheetName("Ledger"))
	assert.Equal(t, "Sheet_1.2", QuoteSheetName("Sheet_1.2"))
	assert.Equal(t, "'2024'", QuoteSheetName("2024"))
	assert.Equal(t, "'Pro Rata'", QuoteSheetName("Pro Rata"))
	assert.Equal(t, "''", QuoteSheetName(""))

	// formula addresses and defined names quote a sheet the same way
	for _, name := range []string{"Ledger", "Sheet_1.2", "Société", "Pro Rata", "O'Brien", "2024"} {
		assert.Equal(t, workbook.QuoteSheetName(name), QuoteSheetName(name), name)
	}
}

func TestParseCellRef(t *testing.T) {
	ref, err := ParseCellRef("B5")
	require.NoError(t, err)
	assert.Equal(t, NewCellRef("", 4, 1), ref)

	ref, err = ParseCellRef("Summary!$C$2")
	require.NoError(t, err)
	assert.Equal(t, NewCellRef("Summary", 1, 2), ref)

	ref, err = ParseCellRef("'Cap Table'!AA10")
	require.NoError(t, err)
	assert.Equal(t, NewCellRef("Cap Table", 9, 26), ref)

	for _, bad := range []string{"", "Sheet1!", "12", "A0", "A-1"} {
		_, err := ParseCellRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestCellRef_Format(t *testing.T) {
	ref := NewCellRef("Ledger", 3, 5)
	assert.Equal(t, "Ledger!F4", ref.String())
	assert.Equal(t, "F4", ref.CellName())
	assert.Equal(t, "Ledger!$F$4", ref.Absolute())
}

func TestSafeSheetName(t *testing.T) {
	assert.Equal(t, "Q1_Q2", SafeSheetName("Q1/Q2"))
	assert.Equal(t, "a_b_c_d", SafeSheetName("a[b]c*d"))
	assert.Len(t, []rune(SafeSheetName("A very long sheet name that keeps going")), 31)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Serie_A", SafeName("Série A"))
	assert.Equal(t, "_2024_Plan", SafeName("2024 Plan"))
	assert.Equal(t, "Pre_Money", SafeName("Pre-Money"))
	assert.Equal(t, "_", SafeName(""))
}
