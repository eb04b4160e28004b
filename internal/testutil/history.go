package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// HistoryBuilder provides a fluent interface for constructing history entries.
// Entries come out newest first, one minute apart, with ids "entry-01", "entry-02"...
type HistoryBuilder struct {
	start   time.Time
	entries []model.HistoryEntry
}

// NewHistoryBuilder starts a builder whose newest entry is stamped 2026-03-01 12:00 UTC.
func NewHistoryBuilder() *HistoryBuilder {
	return &HistoryBuilder{start: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Conversion appends a conversion with no spread, deriving the rate from the amounts.
func (b *HistoryBuilder) Conversion(from, to string, fromAmount, toAmount float64) *HistoryBuilder {
	return b.WithSpread(from, to, fromAmount, toAmount, 0)
}

// WithSpread appends a conversion made at spread percent. The base rate is
// backed out of the realized rate.
func (b *HistoryBuilder) WithSpread(from, to string, fromAmount, toAmount, spread float64) *HistoryBuilder {
	n := len(b.entries)
	rate := 0.0
	if fromAmount != 0 {
		rate = toAmount / fromAmount
	}
	b.entries = append(b.entries, model.HistoryEntry{
		ID:            fmt.Sprintf("entry-%02d", n+1),
		Timestamp:     b.start.Add(-time.Duration(n) * time.Minute),
		FromCurrency:  from,
		ToCurrency:    to,
		FromAmount:    fromAmount,
		ToAmount:      toAmount,
		SpreadPercent: spread,
		Rate:          rate,
		BaseRate:      rate / (1 + spread/100),
	})
	return b
}

// Build returns the entries.
func (b *HistoryBuilder) Build() []model.HistoryEntry {
	return append([]model.HistoryEntry(nil), b.entries...)
}
