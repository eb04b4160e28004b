package rates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
)

func TestTable_Set(t *testing.T) {
	table := Table{}
	require.NoError(t, table.Set("usd", "rub", 90))

	v, ok := table.Get("USD", "RUB")
	assert.True(t, ok)
	assert.InDelta(t, 90, v, 1e-9)

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		err := table.Set("USD", "IDR", bad)
		assert.ErrorIs(t, err, common.ErrInvalidRate)
	}
	_, ok = table.Get("USD", "IDR")
	assert.False(t, ok)
}

func TestTable_Merge(t *testing.T) {
	base := Table{"USD/RUB": 90, "USD/IDR": 15000}
	merged, applied := base.Merge(Table{
		"USD/RUB": 92,
		"usd/thb": 34,
		"EUR/USD": 0,
		"bogus":   5,
	})

	assert.Equal(t, 2, applied)
	assert.Equal(t, Table{"USD/RUB": 92, "USD/IDR": 15000, "USD/THB": 34}, merged)
	assert.InDelta(t, 90, base["USD/RUB"], 1e-9, "original table must not change")
}

func TestTable_SanitizeAndKeys(t *testing.T) {
	table := Table{"idr/rub": 0.006, "USD/RUB": -3, "XX/YY": 1}
	clean := table.Sanitize()
	assert.Equal(t, Table{"IDR/RUB": 0.006}, clean)
	assert.Equal(t, []string{"EUR/USD", "IDR/RUB", "RUB/IDR", "USD/GEL", "USD/IDR", "USD/RUB", "USD/THB", "USD/TRY"}, Fallback().Keys())
}

func TestFallback_ReturnsCopy(t *testing.T) {
	f := Fallback()
	f["USD/RUB"] = 1
	assert.InDelta(t, 91.5, Fallback()["USD/RUB"], 1e-9)
}
