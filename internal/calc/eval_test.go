package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"empty", "", 0},
		{"plain number", "2500", 2500},
		{"precedence", "12+3*2", 18},
		{"left associative subtraction", "10-4-3", 3},
		{"left associative division", "100/5/2", 10},
		{"unary minus", "-5+2", -3},
		{"unary after operator", "4*-2", -8},
		{"decimal literals", "0.1+.2", 0.30000000000000004},
		{"trailing operator ignored", "2000+", 2000},
		{"pending decimal after operator ignored", "5+.", 5},
		{"pending decimal after several operators", "8*-.", 8},
		{"display glyphs", "6×7÷2", 21},
		{"unicode minus", "10−3", 7},
		{"junk stripped", "1 000 + 5 RUB", 1005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	for _, expr := range []string{"5/0", "0/0", "1..2", ".", "3*/2"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedExpression)
		})
	}
}

func TestEvaluateString(t *testing.T) {
	assert.Equal(t, "18", EvaluateString("12+3*2"))
	assert.Equal(t, "0", EvaluateString("5/0"))
	assert.Equal(t, "0", EvaluateString(""))
	assert.Equal(t, "0.5", EvaluateString("1/2"))
	assert.Equal(t, "15000000", EvaluateString("15000*1000"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "1234.5", FormatNumber(1234.5))
	assert.Equal(t, "100000000000000000000", FormatNumber(1e20))
	assert.Equal(t, "-2", FormatNumber(-2))
}

func TestPending(t *testing.T) {
	assert.True(t, Pending("2+"))
	assert.True(t, Pending("5+3"))
	assert.True(t, Pending("-5*2"))
	assert.False(t, Pending("-5"))
	assert.False(t, Pending("2500.5"))
	assert.False(t, Pending(""))
}
