package rates

import (
	"fmt"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// Path names how a rate was found.
type Path string

// Resolution paths in the order they are tried.
const (
	PathIdentity Path = "identity"
	PathDirect   Path = "direct"
	PathInverse  Path = "inverse"
	PathCross    Path = "cross"
	PathFallback Path = "fallback"
)

// Resolution is a resolved rate and the path that produced it.
type Resolution struct {
	Path Path
	Rate float64
}

// Resolver derives conversion rates from a sparse table.
type Resolver struct {
	fallback Table
}

// NewResolver returns a resolver backed by the built-in static table.
func NewResolver() *Resolver {
	return &Resolver{fallback: Fallback()}
}

// NewResolverWithFallback returns a resolver backed by a custom static table.
func NewResolverWithFallback(fallback Table) *Resolver {
	return &Resolver{fallback: fallback.Sanitize()}
}

// Resolve finds the rate for 1 base in quote. It returns ErrUnresolvedRate when
// no path exists; callers are expected to substitute 1.
func (r *Resolver) Resolve(base, quote string, t Table) (Resolution, error) {
	base, quote = model.NormalizeCode(base), model.NormalizeCode(quote)

	if base == quote {
		return Resolution{Rate: 1, Path: PathIdentity}, nil
	}
	if v, ok := t.Get(base, quote); ok {
		return Resolution{Rate: v, Path: PathDirect}, nil
	}
	if v, ok := t.Get(quote, base); ok {
		return Resolution{Rate: 1 / v, Path: PathInverse}, nil
	}
	if base != model.USD && quote != model.USD {
		baseUSD, okBase := r.usdLookup(base, t)
		quoteUSD, okQuote := r.usdLookup(quote, t)
		if okBase && okQuote {
			return Resolution{Rate: quoteUSD / baseUSD, Path: PathCross}, nil
		}
	}
	if v, ok := r.fallback.Get(base, quote); ok {
		return Resolution{Rate: v, Path: PathFallback}, nil
	}
	if v, ok := r.fallback.Get(quote, base); ok {
		return Resolution{Rate: 1 / v, Path: PathFallback}, nil
	}

	return Resolution{}, fmt.Errorf("%w: %s/%s", common.ErrUnresolvedRate, base, quote)
}

// Rate resolves base/quote and substitutes 1 when no path exists.
func (r *Resolver) Rate(base, quote string, t Table) float64 {
	res, err := r.Resolve(base, quote, t)
	if err != nil {
		return 1
	}
	return res.Rate
}

// USDRate returns how many units of code one USD buys, or 1 when unknown.
func (r *Resolver) USDRate(code string, t Table) float64 {
	v, ok := r.usdLookup(model.NormalizeCode(code), t)
	if !ok {
		return 1
	}
	return v
}

func (r *Resolver) usdLookup(code string, t Table) (float64, bool) {
	if code == model.USD {
		return 1, true
	}
	for _, table := range []Table{t, r.fallback} {
		if v, ok := table.Get(model.USD, code); ok {
			return v, true
		}
		if v, ok := table.Get(code, model.USD); ok {
			return 1 / v, true
		}
	}
	return 0, false
}
