package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlcap/internal/formulatest"
)

var safeRefs = map[string]any{
	"pps":        2.0,
	"discount":   0.20,
	"cap":        8_000_000,
	"pre":        10_000_000,
	"investment": 100_000,
}

func TestConversionPrice_Text(t *testing.T) {
	assert.Equal(t,
		"=MIN(pps*(1-discount),IF(cap>0,IFERROR(cap/pre,pps*(1-discount)),pps*(1-discount)))",
		ConversionPrice("pps", "discount", "cap", "pre"))
}

func TestSAFE_DiscountAndCap(t *testing.T) {
	assert.InDelta(t, 1.6, formulatest.Number(t, DiscountedPrice("pps", "discount"), safeRefs), 1e-12)
	assert.InDelta(t, 0.8, formulatest.Number(t, CapPrice("cap", "pre"), safeRefs), 1e-12)

	price := ConversionPrice("pps", "discount", "cap", "pre")
	assert.InDelta(t, 0.8, formulatest.Number(t, price, safeRefs), 1e-12)

	shares := ConversionShares("investment", Expr(price))
	assert.InDelta(t, 125_000, formulatest.Number(t, shares, safeRefs), 1e-6)
}

func TestSAFE_MinPriceEqualsMaxShares(t *testing.T) {
	for _, refs := range []map[string]any{
		safeRefs,
		{"pps": 1.0, "discount": 0.25, "cap": 20_000_000, "pre": 10_000_000, "investment": 500_000},
		{"pps": 3.0, "discount": 0.0, "cap": 5_000_000, "pre": 4_000_000, "investment": 250_000},
	} {
		byPrice := formulatest.Number(t, ConversionShares("investment", Expr(ConversionPrice("pps", "discount", "cap", "pre"))), refs)
		byShares := formulatest.Number(t, SAFEShares("investment", "pps", "discount", "cap", "pre"), refs)
		assert.InDelta(t, byPrice, byShares, 1e-6)
	}
}

func TestConversionPrice_NoCap(t *testing.T) {
	refs := map[string]any{"pps": 2.0, "discount": 0.2, "cap": 0, "pre": 10_000_000}
	assert.InDelta(t, 1.6, formulatest.Number(t, ConversionPrice("pps", "discount", "cap", "pre"), refs), 1e-12)
}

func TestConvertibleShares_MaxOfMethods(t *testing.T) {
	f, err := ConvertibleShares(ConvertibleTerms{
		Principal:       "principal",
		Discount:        "discount",
		ValuationCap:    "cap",
		CapType:         CapPreConversion,
		RoundPreMoney:   "Pre_Money",
		TotalConversion: "Total_Conversion",
		PreRoundShares:  "Pre_Round_Shares",
	})
	require.NoError(t, err)

	refs := map[string]any{
		"principal":        100_000,
		"discount":         0.2,
		"cap":              8_000_000,
		"Pre_Money":        20_000_000,
		"Total_Conversion": 100_000,
		"Pre_Round_Shares": 10_000_000,
	}
	// method 1: 100000 / (19.9M/10M*0.8) = 62814.07; method 2: 100000 / 0.8
	assert.InDelta(t, 125_000, formulatest.Number(t, f, refs), 1e-6)

	refs["cap"] = 100_000_000
	assert.InDelta(t, 100_000/(1.99*0.8), formulatest.Number(t, f, refs), 1e-6)
}

func TestConvertibleShares_InterestConverts(t *testing.T) {
	f, err := ConvertibleShares(ConvertibleTerms{
		Principal:      "principal",
		Interest:       "interest",
		ValuationCap:   "cap",
		CapType:        CapPreConversion,
		PreRoundShares: "pre",
	})
	require.NoError(t, err)
	got := formulatest.Number(t, f, map[string]any{"principal": 100_000, "interest": 8_000, "cap": 10_000_000, "pre": 10_000_000})
	assert.InDelta(t, 108_000, got, 1e-6)
}

func TestConvertibleShares_CapTypes(t *testing.T) {
	refs := map[string]any{"p": 1_000_000, "cap": 11_000_000, "rc": 11_000_000, "total": 2_000_000, "pre": 9_000_000}
	tests := []struct {
		capType   CapType
		postMoney bool
		want      float64
	}{
		{CapPreConversion, false, 1_000_000 / (11_000_000.0 / 9_000_000)},
		{CapPostConversionOwn, false, 1_000_000 / (10_000_000.0 / 9_000_000)},
		{CapPostConversionTotal, false, 1_000_000 / (9_000_000.0 / 9_000_000)},
		{CapDefault, false, 1_000_000 / (11_000_000.0 / 9_000_000)},
		{CapDefault, true, 1_000_000 / (9_000_000.0 / 9_000_000)},
	}
	for _, tt := range tests {
		f, err := ConvertibleShares(ConvertibleTerms{
			Principal:       "p",
			ValuationCap:    "cap",
			CapType:         tt.capType,
			RoundCap:        "rc",
			TotalConversion: "total",
			PreRoundShares:  "pre",
			PostMoney:       tt.postMoney,
		})
		require.NoError(t, err, tt.capType)
		assert.InDelta(t, tt.want, formulatest.Number(t, f, refs), 1e-6, "%s post=%v", tt.capType, tt.postMoney)
	}
}

func TestConvertibleShares_FallsBackToRoundPrice(t *testing.T) {
	f, err := ConvertibleShares(ConvertibleTerms{Principal: "p", RoundPreMoney: "m", PreRoundShares: "n"})
	require.NoError(t, err)
	assert.Equal(t, "=IFERROR(p/(m/n),0)", f)
}

func TestConvertibleShares_Errors(t *testing.T) {
	_, err := ConvertibleShares(ConvertibleTerms{Principal: "p", PreRoundShares: "n"})
	assert.Error(t, err)

	_, err = ConvertibleShares(ConvertibleTerms{Principal: "p", PreRoundShares: "n", ValuationCap: "c", CapType: "bogus"})
	assert.ErrorContains(t, err, `unknown cap type "bogus"`)

	_, err = ConvertibleShares(ConvertibleTerms{Principal: "p"})
	assert.Error(t, err)
}
