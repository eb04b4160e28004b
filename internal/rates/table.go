package rates

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// Table maps "BASE/QUOTE" keys to positive finite rates meaning 1 BASE = rate QUOTE.
type Table map[string]float64

// ValidRate reports whether v may be stored in a Table.
func ValidRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Get looks up the direct entry for base/quote.
func (t Table) Get(base, quote string) (float64, bool) {
	v, ok := t[model.NewPair(base, quote).String()]
	if !ok || !ValidRate(v) {
		return 0, false
	}
	return v, true
}

// Set stores rate for base/quote. Zero, negative and non-finite rates are rejected.
func (t Table) Set(base, quote string, rate float64) error {
	if !ValidRate(rate) {
		return fmt.Errorf("%w: %s/%s = %v", common.ErrInvalidRate, base, quote, rate)
	}
	t[model.NewPair(base, quote).String()] = rate
	return nil
}

// Clone returns an independent copy.
func (t Table) Clone() Table {
	if t == nil {
		return Table{}
	}
	return maps.Clone(t)
}

// Merge returns a copy of t overlaid with the valid entries of updates, and the
// number of entries taken. Existing entries are overwritten, never removed.
func (t Table) Merge(updates Table) (Table, int) {
	merged := t.Clone()
	applied := 0
	for key, v := range updates {
		pair, err := model.ParsePair(key)
		if err != nil || !ValidRate(v) {
			continue
		}
		merged[pair.String()] = v
		applied++
	}
	return merged, applied
}

// Sanitize drops malformed keys and invalid rates, normalizing key case.
func (t Table) Sanitize() Table {
	clean, _ := Table{}.Merge(t)
	return clean
}

// Keys returns the pair keys in sorted order.
func (t Table) Keys() []string {
	return slices.Sorted(maps.Keys(t))
}
