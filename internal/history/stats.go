package history

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// PairStats aggregates the history of one conversion direction.
type PairStats struct {
	Pair      model.Pair
	TotalFrom decimal.Decimal
	TotalTo   decimal.Decimal
	Count     int
	AvgRate   float64
	AvgBase   float64
	AvgMarkup float64
	AvgSpread float64
	hasBase   int
	sumRate   float64
	sumBase   float64
	sumSpread float64
}

// Summarize groups entries by currency pair. AvgRate is the mean realized rate
// (to/from), AvgBase the mean reference rate, and AvgMarkup how far AvgRate sits
// above AvgBase in percent. Pairs are ordered by count, then by name.
func Summarize(entries []model.HistoryEntry) []PairStats {
	byPair := map[model.Pair]*PairStats{}
	for _, e := range entries {
		if e.FromAmount == 0 {
			continue
		}
		p := e.Pair()
		s, ok := byPair[p]
		if !ok {
			s = &PairStats{Pair: p}
			byPair[p] = s
		}
		s.Count++
		s.TotalFrom = s.TotalFrom.Add(decimal.NewFromFloat(e.FromAmount))
		s.TotalTo = s.TotalTo.Add(decimal.NewFromFloat(e.ToAmount))
		s.sumRate += e.ToAmount / e.FromAmount
		s.sumSpread += e.SpreadPercent
		if e.BaseRate > 0 {
			s.sumBase += e.BaseRate
			s.hasBase++
		}
	}

	out := make([]PairStats, 0, len(byPair))
	for _, s := range byPair {
		s.AvgRate = s.sumRate / float64(s.Count)
		s.AvgSpread = s.sumSpread / float64(s.Count)
		if s.hasBase > 0 {
			s.AvgBase = s.sumBase / float64(s.hasBase)
			s.AvgMarkup = (s.AvgRate/s.AvgBase - 1) * 100
		}
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Pair.String() < out[j].Pair.String()
	})
	return out
}
