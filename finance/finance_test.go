package finance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlcap/internal/formulatest"
)

func TestParen_AtomsStayBare(t *testing.T) {
	for _, atom := range []string{
		"A1", "Summary!$B$3", "'Cap Table'!$A$1", "Total_FDS", "0.2",
		"Ledger[@[shares]]", "Ledger[[shares]]", "MAX(0,a-b)", `SUMIF(r,"<"&s,p)`, "(a-b)",
	} {
		assert.Equal(t, atom, paren(atom), atom)
	}
	for _, compound := range []string{"a-b", "-a", "MAX(a)+MIN(b)", "a*b", "(a)+(b)"} {
		assert.Equal(t, "("+compound+")", paren(compound), compound)
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "=SUM(A1,B2)", Sum("A1", "B2"))
	assert.Equal(t, "=a+(b-c)", Add("a", "b-c"))
	assert.Equal(t, "=a*(b+c)", Product("a", "b+c"))
	assert.Equal(t, "=SUMIF(r,1,s)", SumIf("r", "1", "s"))
	assert.Equal(t, "=IFERROR(a/b,0)", SafeDivide("a", "b"))
	assert.Equal(t, "SUM(a)", Expr(" =SUM(a)"))
}

func TestEveryFormulaStartsWithEquals(t *testing.T) {
	interest, err := Interest(MonthlyCompound, "p", "r", "s", "e")
	require.NoError(t, err)
	conv, err := ConvertibleShares(ConvertibleTerms{Principal: "p", Discount: "d", RoundPreMoney: "m", PreRoundShares: "n"})
	require.NoError(t, err)

	for _, f := range []string{
		OwnershipPercent("s", "t"),
		PricePerShare("v", "s"),
		DiscountedPrice("p", "d"),
		CapPrice("c", "n"),
		ConversionPrice("p", "d", "c", "n"),
		ConversionShares("i", "p"),
		SAFEShares("i", "p", "d", "c", "n"),
		conv,
		PercentageShares("p", "P", "C"),
		PreMoneyShares("i", "", "n", "m"),
		PostMoneyShares("i", "x", "n", "m"),
		PoolTopUp("f", "t"),
		VestedFraction("c", "g", "l", "v"),
		VestedShares("q", "c", "g", "l", "v"),
		InTheMoneyShares("q", "c", "k"),
		TSMProceeds("q", "k"),
		TSMRepurchased("p", "c"),
		TSMNetDilution("q", "c", "k"),
		LiquidationPreference("i", "m"),
		NonParticipatingPayout("p", "e", "o"),
		ParticipatingPayout("p", "e", "s", "o"),
		SeniorPayments("r", "s", "p"),
		interest,
		InterestByType("t", "p", "r", "s", "e"),
		ProRataTotalShares("P", "B", "C", "R"),
		ProRataShares("r", "T", "c"),
	} {
		assert.True(t, strings.HasPrefix(f, "="), f)
		assert.False(t, strings.HasPrefix(f, "=="), f)
	}
}

func TestOwnershipPercent(t *testing.T) {
	f := OwnershipPercent("Ledger[@[shares]]", "Total_FDS")
	assert.Equal(t, "=IFERROR(Ledger[@[shares]]/Total_FDS,0)", f)

	got := formulatest.Number(t, f, map[string]any{"Ledger[@[shares]]": 250_000, "Total_FDS": 1_000_000})
	assert.InDelta(t, 0.25, got, 1e-12)

	got = formulatest.Number(t, f, map[string]any{"Ledger[@[shares]]": 250_000, "Total_FDS": 0})
	assert.Equal(t, 0.0, got)
}

func TestPricePerShare(t *testing.T) {
	got := formulatest.Number(t, PricePerShare("Pre_Money", "Pre_Round_Shares"),
		map[string]any{"Pre_Money": 20_000_000, "Pre_Round_Shares": 10_000_000})
	assert.InDelta(t, 2.0, got, 1e-12)
}
