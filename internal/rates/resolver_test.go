package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver()
	table := Table{"USD/RUB": 90, "USD/IDR": 15000, "RUB/THB": 0.4}

	tests := []struct {
		name     string
		base     string
		quote    string
		wantRate float64
		wantPath Path
	}{
		{"identity", "RUB", "RUB", 1, PathIdentity},
		{"direct", "USD", "RUB", 90, PathDirect},
		{"inverse", "RUB", "USD", 1.0 / 90, PathInverse},
		{"direct non-usd", "RUB", "THB", 0.4, PathDirect},
		{"cross via usd", "IDR", "RUB", 0.006, PathCross},
		{"cross uses fallback leg", "IDR", "GEL", 2.72 / 15000, PathCross},
		{"cross through inverted fallback leg", "EUR", "RUB", 90 * 1.09, PathCross},
		{"usd leg from fallback", "USD", "TRY", 34.2, PathFallback},
		{"inverse usd leg from fallback", "TRY", "USD", 1 / 34.2, PathFallback},
		{"lowercase codes", "idr", "rub", 0.006, PathCross},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.base, tt.quote, table)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRate, res.Rate, 1e-9)
			assert.Equal(t, tt.wantPath, res.Path)
		})
	}
}

func TestResolver_Unresolved(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("AED", "RUB", Table{})
	assert.ErrorIs(t, err, common.ErrUnresolvedRate)
	assert.InDelta(t, 1, r.Rate("AED", "RUB", Table{}), 1e-9)
	assert.InDelta(t, 1, r.USDRate("AED", Table{}), 1e-9)
}

func TestResolver_IdentityIgnoresTable(t *testing.T) {
	r := NewResolver()
	table := Table{"RUB/RUB": 5}
	for _, c := range model.SupportedCurrencies {
		assert.InDelta(t, 1, r.Rate(c.Code, c.Code, table), 1e-12, c.Code)
	}
	assert.InDelta(t, 1, r.Rate("ZZZ", "ZZZ", nil), 1e-12)
}

func TestResolver_Reciprocal(t *testing.T) {
	r := NewResolver()
	table := Table{"USD/RUB": 90, "USD/IDR": 15000, "EUR/USD": 1.1}
	codes := []string{"USD", "RUB", "IDR", "EUR", "THB"}

	for _, a := range codes {
		for _, b := range codes {
			ab, errAB := r.Resolve(a, b, table)
			ba, errBA := r.Resolve(b, a, table)
			require.NoError(t, errAB)
			require.NoError(t, errBA)
			assert.InDelta(t, 1, ab.Rate*ba.Rate, 1e-9, "%s/%s", a, b)
		}
	}
}

func TestResolver_USDRate(t *testing.T) {
	r := NewResolver()
	table := Table{"USD/RUB": 90, "IDR/USD": 1.0 / 15000}

	assert.InDelta(t, 1, r.USDRate("USD", table), 1e-12)
	assert.InDelta(t, 90, r.USDRate("RUB", table), 1e-9)
	assert.InDelta(t, 15000, r.USDRate("IDR", table), 1e-6)
	assert.InDelta(t, 34.5, r.USDRate("THB", table), 1e-9)
}

func TestResolver_CustomFallback(t *testing.T) {
	r := NewResolverWithFallback(Table{"AED/RUB": 25})
	assert.InDelta(t, 25, r.Rate("AED", "RUB", nil), 1e-9)
	assert.InDelta(t, 0.04, r.Rate("RUB", "AED", nil), 1e-9)
}
