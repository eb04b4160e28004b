package model

import (
	"fmt"
	"strings"
)

// Pair is an ordered currency pair. A rate r for the pair means 1 Base = r Quote.
type Pair struct {
	Base  string
	Quote string
}

// NewPair builds a pair from two codes, normalizing case.
func NewPair(base, quote string) Pair {
	return Pair{Base: NormalizeCode(base), Quote: NormalizeCode(quote)}
}

// String renders the conventional "BASE/QUOTE" key.
func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Inverse returns the pair with base and quote swapped.
func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// ParsePair parses a "BASE/QUOTE" key.
func ParsePair(s string) (Pair, error) {
	base, quote, ok := strings.Cut(s, "/")
	if !ok {
		return Pair{}, fmt.Errorf("invalid pair %q: missing '/'", s)
	}
	p := NewPair(base, quote)
	if !IsValidCode(p.Base) || !IsValidCode(p.Quote) {
		return Pair{}, fmt.Errorf("invalid pair %q: codes must be 3 letters", s)
	}
	return p, nil
}
