package model

// Field identifies one of the four logical calculator fields.
type Field int

const (
	FieldA Field = iota
	FieldB
	FieldUSD
	FieldSpread
)

// Fields lists every field in display order.
var Fields = []Field{FieldA, FieldB, FieldUSD, FieldSpread}

func (f Field) String() string {
	switch f {
	case FieldA:
		return "A"
	case FieldB:
		return "B"
	case FieldUSD:
		return "USD"
	case FieldSpread:
		return "Spread"
	default:
		return "unknown"
	}
}

// ParseField maps the names used on the command line to a Field.
func ParseField(s string) (Field, bool) {
	switch s {
	case "a", "A":
		return FieldA, true
	case "b", "B":
		return FieldB, true
	case "usd", "USD":
		return FieldUSD, true
	case "spread", "Spread":
		return FieldSpread, true
	default:
		return FieldA, false
	}
}
