package rates

import "context"

// Source fetches fresh rates relevant to a currency pair.
// Implementations may return a partial table; an empty table is an error.
type Source interface {
	Name() string
	FetchRates(ctx context.Context, currencyA, currencyB string) (Table, error)
}

// wantedPairs lists the pairs a refresh should try to cover: both legs against
// USD plus the direct pair, without duplicates or identities.
func wantedPairs(currencyA, currencyB string) [][2]string {
	var pairs [][2]string
	seen := map[[2]string]bool{}
	add := func(base, quote string) {
		key := [2]string{base, quote}
		if base == quote || seen[key] {
			return
		}
		seen[key] = true
		pairs = append(pairs, key)
	}
	add("USD", currencyA)
	add("USD", currencyB)
	add(currencyA, currencyB)
	return pairs
}
