package calc

import (
	"regexp"
	"strconv"
	"strings"
)

var numericBuffer = regexp.MustCompile(`^\d*\.?\d*$`)

// Formatter renders raw buffers for display.
type Formatter struct {
	GroupSeparator string
}

// DefaultFormatter groups thousands with a space.
var DefaultFormatter = Formatter{GroupSeparator: " "}

// Display renders buf. Plain numbers get thousands grouping on the integer part;
// expressions are shown with × and ÷ glyphs and no grouping. Empty buffers show "0".
func (f Formatter) Display(buf string) string {
	if buf == "" {
		return "0"
	}
	if numericBuffer.MatchString(buf) {
		integer, fraction, hasFraction := strings.Cut(buf, ".")
		grouped := GroupThousands(integer, f.GroupSeparator)
		if hasFraction {
			return grouped + "." + fraction
		}
		return grouped
	}
	return strings.NewReplacer("*", "×", "/", "÷").Replace(buf)
}

// GroupThousands inserts sep between every group of three digits, counting from the right.
func GroupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatRate renders a rate with precision suited to its magnitude.
func FormatRate(r float64) string {
	switch {
	case r == 0:
		return "0"
	case r >= 1000:
		return DefaultFormatter.Display(strconv.FormatFloat(r, 'f', 2, 64))
	case r >= 1:
		return strconv.FormatFloat(r, 'f', 4, 64)
	default:
		return strconv.FormatFloat(r, 'g', 6, 64)
	}
}
