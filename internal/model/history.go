package model

import "time"

// HistoryEntry is an immutable snapshot of a completed conversion.
type HistoryEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	ID            string    `json:"id"`
	FromCurrency  string    `json:"fromCurrency"`
	ToCurrency    string    `json:"toCurrency"`
	FromAmount    float64   `json:"fromAmount"`
	ToAmount      float64   `json:"toAmount"`
	SpreadPercent float64   `json:"spreadPercent"`
	Rate          float64   `json:"rate,omitempty"`
	BaseRate      float64   `json:"baseRate,omitempty"`
}

// Pair returns the conversion direction of the entry.
func (e HistoryEntry) Pair() Pair {
	return Pair{Base: e.FromCurrency, Quote: e.ToCurrency}
}

// Conversion is the raw field state handed to the history recorder.
// Amounts are raw buffers and may still be unevaluated expressions.
type Conversion struct {
	FromCurrency  string
	FromRaw       string
	ToCurrency    string
	ToRaw         string
	SpreadPercent float64
	Rate          float64
	BaseRate      float64
}
