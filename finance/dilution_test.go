package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajack/xlcap/internal/formulatest"
)

func TestTreasuryStockMethod(t *testing.T) {
	refs := map[string]any{"qty": 1_000, "pps": 2.0, "strike": 0.5}

	assert.Equal(t, 1_000.0, formulatest.Number(t, InTheMoneyShares("qty", "pps", "strike"), refs))
	assert.Equal(t, 500.0, formulatest.Number(t, TSMProceeds("qty", "strike"), refs))
	assert.Equal(t, 250.0, formulatest.Number(t, TSMRepurchased("proceeds", "pps"), map[string]any{"proceeds": 500, "pps": 2.0}))
	assert.InDelta(t, 750, formulatest.Number(t, TSMNetDilution("qty", "pps", "strike"), refs), 1e-9)
}

func TestTreasuryStockMethod_OutOfTheMoney(t *testing.T) {
	refs := map[string]any{"qty": 1_000, "pps": 2.0, "strike": 3.0}
	assert.Equal(t, 0.0, formulatest.Number(t, InTheMoneyShares("qty", "pps", "strike"), refs))
	assert.Equal(t, 0.0, formulatest.Number(t, TSMNetDilution("qty", "pps", "strike"), refs))
}

func TestTSMRepurchased_ZeroPrice(t *testing.T) {
	assert.Equal(t, 0.0, formulatest.Number(t, TSMRepurchased("proceeds", "pps"), map[string]any{"proceeds": 500, "pps": 0}))
}
