package formulatest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	code, env, err := Translate(`=IF(Summary!$B$3="simple",a^2,a<>b)`, map[string]any{
		"Summary!$B$3": "simple",
		"a":            2,
		"b":            3,
	})
	require.NoError(t, err)
	assert.Equal(t, `xlIF(ref0 == "simple",ref1 ** 2,ref1 != ref2)`, code)
	assert.Equal(t, map[string]any{"ref0": "simple", "ref1": 2.0, "ref2": 3.0}, env)
}

func TestTranslate_Errors(t *testing.T) {
	_, _, err := Translate("=a+b", map[string]any{"a": 1})
	assert.ErrorContains(t, err, `unbound reference "b"`)

	_, _, err = Translate("=VLOOKUP(a,b,1)", map[string]any{"a": 1, "b": 1})
	assert.ErrorContains(t, err, "unsupported function VLOOKUP")

	_, _, err = Translate("  ", nil)
	assert.Error(t, err)
}

func TestEvaluator_Number(t *testing.T) {
	e := New()
	v, err := e.Number("=IFERROR(a/b,-1)", map[string]any{"a": 1, "b": 0})
	require.NoError(t, err)
	assert.Equal(t, -1.0, v)

	v, err = e.Number("=SUM(r)+MAX(1,2,3)", map[string]any{"r": []float64{1, 2, 3.5}})
	require.NoError(t, err)
	assert.Equal(t, 9.5, v)

	_, err = e.Number(`="text"`, nil)
	assert.Error(t, err)
}

func TestEvaluator_Dates(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Number(t, "=_xlfn.DAYS(end,start)", map[string]any{"start": start, "end": start.AddDate(1, 0, 0)})
	assert.Equal(t, 366.0, got)
	assert.Equal(t, 45292.0, Serial(start))
}
