package calc

import (
	"strconv"
	"strings"
)

// Key is a discrete keypad event.
type Key string

// Keypad keys. Digits are the single characters "0" through "9".
const (
	KeyDecimal    Key = "."
	KeyTripleZero Key = "000"
	KeyAdd        Key = "+"
	KeySubtract   Key = "-"
	KeyMultiply   Key = "*"
	KeyDivide     Key = "/"
	KeyPercent    Key = "%"
	KeyBackspace  Key = "BACK"
	KeyClear      Key = "C"
	KeyEquals     Key = "="
)

// ParseKey validates a keypad token.
func ParseKey(s string) (Key, bool) {
	k := Key(s)
	switch {
	case k.IsDigit(), k.IsOperator():
		return k, true
	}
	switch k {
	case KeyDecimal, KeyTripleZero, KeyPercent, KeyBackspace, KeyClear, KeyEquals:
		return k, true
	}
	return "", false
}

// IsDigit reports whether k is one of "0".."9".
func (k Key) IsDigit() bool {
	return len(k) == 1 && k[0] >= '0' && k[0] <= '9'
}

// IsOperator reports whether k is a binary operator key.
func (k Key) IsOperator() bool {
	return len(k) == 1 && strings.IndexByte(operators, k[0]) >= 0
}

// IsEntry reports whether k starts a new number: digits, the decimal point and "000".
func (k Key) IsEntry() bool {
	return k.IsDigit() || k == KeyDecimal || k == KeyTripleZero
}

// Accumulator holds one field's raw expression buffer.
// The zero value is an empty, non-fresh buffer.
type Accumulator struct {
	buf   string
	fresh bool
}

// NewAccumulator returns an accumulator seeded with text.
func NewAccumulator(text string) Accumulator {
	return Accumulator{buf: text}
}

// Text returns the raw buffer.
func (a *Accumulator) Text() string {
	return a.buf
}

// Set replaces the buffer with a value computed elsewhere. The fresh flag is left untouched.
func (a *Accumulator) Set(text string) {
	a.buf = text
}

// Activate marks the buffer fresh: the next digit replaces it, the next operator continues it.
func (a *Accumulator) Activate() {
	a.fresh = true
}

// Fresh reports whether the next entry key replaces the buffer.
func (a *Accumulator) Fresh() bool {
	return a.fresh
}

// Value evaluates the buffer, substituting 0 for malformed input.
func (a *Accumulator) Value() float64 {
	return Value(a.buf)
}

// Press applies a key to the buffer and reports whether the buffer changed.
// Rejected keys leave the buffer as it was.
func (a *Accumulator) Press(k Key) bool {
	before := a.buf

	if a.fresh {
		a.fresh = false
		if k.IsEntry() {
			a.buf = ""
		}
	}

	switch {
	case k == KeyBackspace:
		if a.buf != "" {
			a.buf = a.buf[:len(a.buf)-1]
		}
	case k == KeyClear:
		a.buf = ""
	case k == KeyEquals:
		a.buf = EvaluateString(a.buf)
	case k == KeyPercent:
		a.percent()
	case k.IsOperator():
		a.operator(k)
	case k == KeyDecimal:
		if !strings.Contains(lastSegment(a.buf), ".") {
			a.buf += "."
		}
	case k == KeyTripleZero:
		if seg := lastSegment(a.buf); seg != "" && seg != "0" {
			a.buf += "000"
		}
	case k.IsDigit():
		if lastSegment(a.buf) == "0" {
			a.buf = a.buf[:len(a.buf)-1] + string(k)
		} else {
			a.buf += string(k)
		}
	}

	return a.buf != before
}

func (a *Accumulator) operator(k Key) {
	switch {
	case a.buf == "":
		// Only a unary minus may start an expression.
		if k == KeySubtract {
			a.buf = string(k)
		}
	case endsWithOperator(a.buf):
		if len(a.buf) == 1 && k != KeySubtract {
			return
		}
		a.buf = a.buf[:len(a.buf)-1] + string(k)
	default:
		a.buf += string(k)
	}
}

func (a *Accumulator) percent() {
	seg := lastSegment(a.buf)
	if seg == "" {
		return
	}
	v, err := strconv.ParseFloat(seg, 64)
	if err != nil {
		return
	}
	a.buf = a.buf[:len(a.buf)-len(seg)] + FormatNumber(v/100)
}

// lastSegment returns the operand after the last operator.
func lastSegment(buf string) string {
	return buf[strings.LastIndexAny(buf, operators)+1:]
}

func endsWithOperator(buf string) bool {
	return buf != "" && strings.IndexByte(operators, buf[len(buf)-1]) >= 0
}
