package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Pair
		wantErr bool
	}{
		{name: "canonical", input: "USD/RUB", want: Pair{Base: "USD", Quote: "RUB"}},
		{name: "lower case and spaces", input: " idr / rub ", want: Pair{Base: "IDR", Quote: "RUB"}},
		{name: "missing slash", input: "USDRUB", wantErr: true},
		{name: "short code", input: "US/RUB", wantErr: true},
		{name: "digits", input: "US1/RUB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePair(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPair(t *testing.T) {
	p := NewPair("idr", "rub")
	assert.Equal(t, "IDR/RUB", p.String())
	assert.Equal(t, Pair{Base: "RUB", Quote: "IDR"}, p.Inverse())

	e := HistoryEntry{FromCurrency: "USD", ToCurrency: "GEL"}
	assert.Equal(t, "USD/GEL", e.Pair().String())
}

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, ok := ParseField(f.String())
		require.True(t, ok, f.String())
		assert.Equal(t, f, got)
	}

	got, ok := ParseField("usd")
	assert.True(t, ok)
	assert.Equal(t, FieldUSD, got)

	_, ok = ParseField("eur")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Field(9).String())
}

func TestCurrencies(t *testing.T) {
	c, ok := LookupCurrency(" rub")
	assert.True(t, ok)
	assert.Equal(t, "₽", c.Symbol)

	c, ok = LookupCurrency("xau")
	assert.False(t, ok)
	assert.Equal(t, "XAU", c.Code)

	assert.True(t, IsValidCode("XAU"))
	assert.False(t, IsValidCode("xau"))
	assert.False(t, IsValidCode("EURO"))
	assert.False(t, IsValidCode(""))
}
