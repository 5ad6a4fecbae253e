package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajack/xlcap/internal/formulatest"
)

func TestNonParticipatingPayout(t *testing.T) {
	f := NonParticipatingPayout("pref", "Exit_Value", "own")
	assert.Equal(t, "=MAX(pref,Exit_Value*own)", f)

	// preference wins at a low exit, conversion at a high one
	assert.Equal(t, 1_000_000.0, formulatest.Number(t, f, map[string]any{"pref": 1_000_000, "Exit_Value": 10_000_000, "own": 0.05}))
	assert.InDelta(t, 5_000_000, formulatest.Number(t, f, map[string]any{"pref": 1_000_000, "Exit_Value": 100_000_000, "own": 0.05}), 1e-6)
}

func TestParticipatingPayout(t *testing.T) {
	got := formulatest.Number(t, ParticipatingPayout("pref", "Exit_Value", "prior", "own"),
		map[string]any{"pref": 1_000_000, "Exit_Value": 10_000_000, "prior": 2_000_000, "own": 0.05})
	assert.InDelta(t, 1_400_000, got, 1e-6)
}

func TestLiquidationPreference(t *testing.T) {
	assert.Equal(t, "=invested*multiple", LiquidationPreference("invested", "multiple"))
	got := formulatest.Number(t, LiquidationPreference("invested", "multiple"), map[string]any{"invested": 2_000_000, "multiple": 1.5})
	assert.InDelta(t, 3_000_000, got, 1e-6)
}

func TestSeniorPayments(t *testing.T) {
	f := SeniorPayments("Waterfall[[seniority]]", "Waterfall[@[seniority]]", "Waterfall[[preference]]")
	assert.Equal(t, `=SUMIF(Waterfall[[seniority]],"<"&Waterfall[@[seniority]],Waterfall[[preference]])`, f)

	got := formulatest.Number(t, f, map[string]any{
		"Waterfall[[seniority]]":  []float64{1, 2, 2, 3},
		"Waterfall[@[seniority]]": "3",
		"Waterfall[[preference]]": []float64{5_000_000, 2_000_000, 1_000_000, 500_000},
	})
	assert.InDelta(t, 8_000_000, got, 1e-6)
}

func TestClassPayout(t *testing.T) {
	f := ClassPayout("part", "pref", "Exit_Value", "prior", "own")
	assert.Equal(t, "=MIN(MAX(0,Exit_Value-prior),IF(part,pref+(Exit_Value-prior)*own,MAX(pref,Exit_Value*own)))", f)

	refs := map[string]any{"part": true, "pref": 1_000_000, "Exit_Value": 10_000_000, "prior": 2_000_000, "own": 0.05}
	assert.InDelta(t, 1_400_000, formulatest.Number(t, f, refs), 1e-6)

	refs["part"] = false
	assert.InDelta(t, 1_000_000, formulatest.Number(t, f, refs), 1e-6)

	// seniors took everything
	refs["prior"] = 10_000_000
	assert.Equal(t, 0.0, formulatest.Number(t, f, refs))
}
