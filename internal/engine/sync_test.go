package engine

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
)

var testTable = rates.Table{"USD/RUB": 90, "USD/IDR": 15000}

func idrRub(spread float64) Context {
	return Context{CurrencyA: "IDR", CurrencyB: "RUB", SpreadPercent: spread}
}

func TestSynchronizer_Sync(t *testing.T) {
	s := NewSynchronizer(nil, DefaultPrecision())

	tests := []struct {
		name    string
		req     Request
		wantA   string
		wantB   string
		wantUSD string
	}{
		{
			name:  "edit A",
			req:   Request{Field: model.FieldA, Raw: "15000000", Context: idrRub(0)},
			wantA: "15000000", wantB: "90000.00", wantUSD: "1000.00",
		},
		{
			name:  "edit A with expression",
			req:   Request{Field: model.FieldA, Raw: "1000000*15", Context: idrRub(0)},
			wantA: "1000000*15", wantB: "90000.00", wantUSD: "1000.00",
		},
		{
			name:  "edit B",
			req:   Request{Field: model.FieldB, Raw: "90000", Context: idrRub(0)},
			wantA: "15000000", wantB: "90000", wantUSD: "1000.00",
		},
		{
			name:  "edit USD",
			req:   Request{Field: model.FieldUSD, Raw: "1000", Context: idrRub(0)},
			wantA: "15000000", wantB: "90000.00", wantUSD: "1000",
		},
		{
			name:  "edit A with spread",
			req:   Request{Field: model.FieldA, Raw: "15000000", Context: idrRub(2)},
			wantA: "15000000", wantB: "91800.00", wantUSD: "1000.00",
		},
		{
			name:  "edit spread re-derives from A",
			req:   Request{Field: model.FieldSpread, Raw: "2", Anchor: "15000000", Context: idrRub(0)},
			wantA: "15000000", wantB: "91800.00", wantUSD: "1000.00",
		},
		{
			name:  "empty A",
			req:   Request{Field: model.FieldA, Raw: "", Context: idrRub(0)},
			wantA: "", wantB: "0.00", wantUSD: "0.00",
		},
		{
			name:  "malformed A",
			req:   Request{Field: model.FieldA, Raw: "5/0", Context: idrRub(0)},
			wantA: "5/0", wantB: "0.00", wantUSD: "0.00",
		},
		{
			name:  "zero effective rate",
			req:   Request{Field: model.FieldB, Raw: "100", Context: idrRub(-100)},
			wantA: "0", wantB: "100", wantUSD: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sync(tt.req, testTable)
			assert.Equal(t, tt.wantA, got.A)
			assert.Equal(t, tt.wantB, got.B)
			assert.Equal(t, tt.wantUSD, got.USD)
		})
	}
}

func TestSynchronizer_SpreadDisplay(t *testing.T) {
	s := NewSynchronizer(nil, DefaultPrecision())

	got := s.Sync(Request{Field: model.FieldSpread, Raw: "1.5+0.5", Anchor: "1000", Context: idrRub(0)}, testTable)
	assert.Equal(t, "1.5+0.5", got.Spread, "spread is kept verbatim")
	assert.InDelta(t, 0.006*1.02, got.EffectiveRate, 1e-12)

	got = s.Sync(Request{Field: model.FieldA, Raw: "1000", Context: idrRub(2.5)}, testTable)
	assert.Equal(t, "2.5", got.Spread)
}

func TestSynchronizer_Quote(t *testing.T) {
	s := NewSynchronizer(nil, DefaultPrecision())
	q := s.Quote(idrRub(2), testTable)

	assert.InDelta(t, 0.006, q.BaseRate, 1e-12)
	assert.InDelta(t, 0.00612, q.EffectiveRate, 1e-12)
	assert.InDelta(t, 15000, q.USDRateA, 1e-9)
	assert.InDelta(t, 90, q.USDRateB, 1e-9)
	assert.InDelta(t, 1/0.00612, q.InverseEffectiveRate(), 1e-6)
	assert.Zero(t, Quote{}.InverseEffectiveRate())
}

func TestSynchronizer_UnresolvedRateIsNeutral(t *testing.T) {
	s := NewSynchronizer(nil, DefaultPrecision())
	got := s.Sync(Request{Field: model.FieldA, Raw: "500", Context: Context{CurrencyA: "AED", CurrencyB: "XYZ"}}, rates.Table{})

	assert.InDelta(t, 1, got.BaseRate, 1e-12)
	assert.Equal(t, "500.00", got.B)
	assert.Equal(t, "500.00", got.USD)
}

func TestSynchronizer_CustomPrecision(t *testing.T) {
	s := NewSynchronizer(nil, Precision{A: 2, B: 4, USD: 0})
	got := s.Sync(Request{Field: model.FieldB, Raw: "100", Context: idrRub(0)}, testTable)

	assert.Equal(t, "16666.67", got.A)
	assert.Equal(t, "1", got.USD)

	got = s.Sync(Request{Field: model.FieldA, Raw: "12345", Context: idrRub(0)}, testTable)
	assert.Equal(t, "74.0700", got.B)
}

func TestSynchronizer_Idempotent(t *testing.T) {
	s := NewSynchronizer(nil, DefaultPrecision())
	for _, f := range model.Fields {
		req := Request{Field: f, Raw: "12345.6", Anchor: "777", Context: idrRub(1.7)}
		assert.Equal(t, s.Sync(req, testTable), s.Sync(req, testTable), f.String())
	}
}

func TestSynchronizer_RoundTrip(t *testing.T) {
	s := NewSynchronizer(nil, DefaultPrecision())
	amounts := []float64{1000, 15000, 2000000, 15000000, 987654321}
	spreads := []float64{0, 0.5, 2, 7.25}

	for _, n := range amounts {
		for _, spread := range spreads {
			ctx := idrRub(spread)
			fromA := s.Sync(Request{Field: model.FieldA, Raw: strconv.FormatFloat(n, 'f', -1, 64), Context: ctx}, testTable)
			fromB := s.Sync(Request{Field: model.FieldB, Raw: fromA.B, Context: ctx}, testTable)

			a, err := strconv.ParseFloat(fromB.A, 64)
			require.NoError(t, err)
			// B is rounded to cents, so A may drift by the A value of half a cent.
			tolerance := math.Max(1, 0.005/fromA.EffectiveRate)
			assert.InDelta(t, n, a, tolerance, "n=%v spread=%v", n, spread)
			assert.Equal(t, fromA.USD, fromB.USD, "n=%v spread=%v", n, spread)
		}
	}
}
