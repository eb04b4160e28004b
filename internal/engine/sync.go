package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
)

// Precision is the number of decimal places each amount field rounds to.
type Precision struct {
	A   int32
	B   int32
	USD int32
}

// DefaultPrecision treats currency A as a whole-unit currency.
func DefaultPrecision() Precision {
	return Precision{A: 0, B: 2, USD: 2}
}

// Context is the part of the calculator the user sets directly.
type Context struct {
	CurrencyA     string
	CurrencyB     string
	SpreadPercent float64
}

// Pair returns the A/B conversion direction.
func (c Context) Pair() model.Pair {
	return model.NewPair(c.CurrencyA, c.CurrencyB)
}

// Quote holds the rates a sync pass was computed with.
type Quote struct {
	BaseRate      float64
	EffectiveRate float64
	// USDRateA and USDRateB are units of A and B per one USD.
	USDRateA float64
	USDRateB float64
}

// InverseEffectiveRate is the price of one B in A, or 0 when the effective rate is 0.
func (q Quote) InverseEffectiveRate() float64 {
	if q.EffectiveRate == 0 {
		return 0
	}
	return 1 / q.EffectiveRate
}

// Request describes one edit to sync.
type Request struct {
	// Raw is the edited field's buffer.
	Raw string
	// Anchor is the current A buffer. Spread edits re-derive B and USD from it.
	Anchor  string
	Context Context
	Field   model.Field
}

// Result holds the display values for all four fields after a sync.
// The edited field keeps its raw buffer verbatim.
type Result struct {
	A      string
	B      string
	USD    string
	Spread string
	Quote
}

// Buffer returns the value for f.
func (r Result) Buffer(f model.Field) string {
	switch f {
	case model.FieldA:
		return r.A
	case model.FieldB:
		return r.B
	case model.FieldUSD:
		return r.USD
	default:
		return r.Spread
	}
}

// Synchronizer keeps the A, B and USD amounts consistent under the effective rate.
type Synchronizer struct {
	resolver  *rates.Resolver
	precision Precision
}

// NewSynchronizer creates a synchronizer. A nil resolver uses the built-in fallback table.
func NewSynchronizer(resolver *rates.Resolver, precision Precision) *Synchronizer {
	if resolver == nil {
		resolver = rates.NewResolver()
	}
	return &Synchronizer{resolver: resolver, precision: precision}
}

// Precision returns the rounding configuration.
func (s *Synchronizer) Precision() Precision {
	return s.precision
}

// Resolver returns the resolver used for base and USD rates.
func (s *Synchronizer) Resolver() *rates.Resolver {
	return s.resolver
}

// Quote resolves the rates for c against table. Unresolved rates become 1.
func (s *Synchronizer) Quote(c Context, table rates.Table) Quote {
	base := s.resolver.Rate(c.CurrencyA, c.CurrencyB, table)
	return Quote{
		BaseRate:      base,
		EffectiveRate: base * (1 + c.SpreadPercent/100),
		USDRateA:      s.resolver.USDRate(c.CurrencyA, table),
		USDRateB:      s.resolver.USDRate(c.CurrencyB, table),
	}
}

// Sync recomputes every field from the edited one. It is a pure function of
// its inputs, so repeating a call yields the same result.
func (s *Synchronizer) Sync(req Request, table rates.Table) Result {
	c := req.Context
	spread := calc.FormatNumber(c.SpreadPercent)
	if req.Field == model.FieldSpread {
		c.SpreadPercent = calc.Value(req.Raw)
		spread = req.Raw
	}

	q := s.Quote(c, table)
	res := Result{Quote: q, Spread: spread}
	n := calc.Value(req.Raw)

	switch req.Field {
	case model.FieldB:
		a := n / q.EffectiveRate
		res.A = s.round(a, s.precision.A)
		res.B = req.Raw
		res.USD = s.round(a/q.USDRateA, s.precision.USD)
	case model.FieldUSD:
		a := n * q.USDRateA
		res.A = s.round(a, s.precision.A)
		res.B = s.round(a*q.EffectiveRate, s.precision.B)
		res.USD = req.Raw
	case model.FieldSpread:
		a := calc.Value(req.Anchor)
		res.A = req.Anchor
		res.B = s.round(a*q.EffectiveRate, s.precision.B)
		res.USD = s.round(a/q.USDRateA, s.precision.USD)
	default:
		res.A = req.Raw
		res.B = s.round(n*q.EffectiveRate, s.precision.B)
		res.USD = s.round(n/q.USDRateA, s.precision.USD)
	}
	return res
}

func (s *Synchronizer) round(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero.StringFixed(places)
	}
	return decimal.NewFromFloat(v).Round(places).StringFixed(places)
}
