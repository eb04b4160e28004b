package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func press(a *Accumulator, keys ...Key) {
	for _, k := range keys {
		a.Press(k)
	}
}

func TestAccumulator_Press(t *testing.T) {
	tests := []struct {
		name  string
		start string
		keys  []Key
		want  string
	}{
		{"digits append", "", []Key{"1", "2", "3"}, "123"},
		{"leading zero replaced", "", []Key{"0", "7"}, "7"},
		{"zero then decimal", "", []Key{"0", KeyDecimal, "5"}, "0.5"},
		{"second decimal rejected", "1.5", []Key{KeyDecimal}, "1.5"},
		{"decimal allowed in new segment", "1.5+2", []Key{KeyDecimal, "5"}, "1.5+2.5"},
		{"zero segment after operator replaced", "12+0", []Key{"3"}, "12+3"},
		{"triple zero", "15", []Key{KeyTripleZero}, "15000"},
		{"triple zero on empty rejected", "", []Key{KeyTripleZero}, ""},
		{"triple zero on zero rejected", "0", []Key{KeyTripleZero}, "0"},
		{"triple zero after operator rejected", "5+", []Key{KeyTripleZero}, "5+"},
		{"operator on empty rejected", "", []Key{KeyAdd, KeyMultiply}, ""},
		{"unary minus seed", "", []Key{KeySubtract, "4"}, "-4"},
		{"lone minus keeps minus", "-", []Key{KeyMultiply}, "-"},
		{"operator replaced", "12+", []Key{KeyMultiply}, "12*"},
		{"operator appended", "12", []Key{KeyDivide}, "12/"},
		{"percent", "250", []Key{KeyPercent}, "2.5"},
		{"percent last segment", "1000+50", []Key{KeyPercent}, "1000+0.5"},
		{"percent on empty segment", "1000+", []Key{KeyPercent}, "1000+"},
		{"backspace", "123", []Key{KeyBackspace}, "12"},
		{"backspace empty", "", []Key{KeyBackspace}, ""},
		{"clear", "12+3", []Key{KeyClear}, ""},
		{"equals", "12+3*2", []Key{KeyEquals}, "18"},
		{"equals non-finite", "5/0", []Key{KeyEquals}, "0"},
		{"equals empty", "", []Key{KeyEquals}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccumulator(tt.start)
			press(&a, tt.keys...)
			assert.Equal(t, tt.want, a.Text())
		})
	}
}

func TestAccumulator_Fresh(t *testing.T) {
	t.Run("digit replaces", func(t *testing.T) {
		a := NewAccumulator("15000")
		a.Activate()
		assert.True(t, a.Fresh())
		a.Press("7")
		assert.Equal(t, "7", a.Text())
		assert.False(t, a.Fresh())
	})

	t.Run("operator continues", func(t *testing.T) {
		a := NewAccumulator("15000")
		a.Activate()
		press(&a, KeyMultiply, "2")
		assert.Equal(t, "15000*2", a.Text())
		assert.False(t, a.Fresh())
	})

	t.Run("decimal replaces", func(t *testing.T) {
		a := NewAccumulator("15000")
		a.Activate()
		press(&a, KeyDecimal, "5")
		assert.Equal(t, ".5", a.Text())
	})

	t.Run("backspace clears flag only", func(t *testing.T) {
		a := NewAccumulator("150")
		a.Activate()
		a.Press(KeyBackspace)
		assert.Equal(t, "15", a.Text())
		assert.False(t, a.Fresh())
	})
}

func TestAccumulator_PressReportsChange(t *testing.T) {
	a := NewAccumulator("1.5")
	assert.False(t, a.Press(KeyDecimal))
	assert.True(t, a.Press("2"))
}

func TestParseKey(t *testing.T) {
	for _, s := range []string{"0", "9", ".", "000", "+", "-", "*", "/", "%", "BACK", "C", "="} {
		k, ok := ParseKey(s)
		assert.True(t, ok, s)
		assert.Equal(t, Key(s), k)
	}
	for _, s := range []string{"", "00", "x", "10", "^"} {
		_, ok := ParseKey(s)
		assert.False(t, ok, s)
	}
}
