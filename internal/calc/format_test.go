package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatter_Display(t *testing.T) {
	f := DefaultFormatter
	tests := []struct {
		buf  string
		want string
	}{
		{"", "0"},
		{"5", "5"},
		{"999", "999"},
		{"1000", "1 000"},
		{"15000000", "15 000 000"},
		{"1234567.891", "1 234 567.891"},
		{"1000.", "1 000."},
		{".5", ".5"},
		{"12*3/4", "12×3÷4"},
		{"1000+2000", "1000+2000"},
		{"-500", "-500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Display(tt.buf), tt.buf)
	}
}

func TestFormatter_CustomSeparator(t *testing.T) {
	f := Formatter{GroupSeparator: ","}
	assert.Equal(t, "1,234,567", f.Display("1234567"))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0", FormatRate(0))
	assert.Equal(t, "16 200.00", FormatRate(16200))
	assert.Equal(t, "91.5000", FormatRate(91.5))
	assert.Equal(t, "0.0047", FormatRate(0.0047))
}
