package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
)

// MultiSource queries several sources concurrently and merges what they return.
// Sources listed later take precedence for pairs reported by more than one.
type MultiSource struct {
	logger  *slog.Logger
	sources []Source
}

// NewMultiSource combines sources. A nil logger uses slog.Default.
func NewMultiSource(logger *slog.Logger, sources ...Source) *MultiSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiSource{logger: logger, sources: sources}
}

// Name implements Source.
func (m *MultiSource) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// FetchRates fails only when every source fails.
func (m *MultiSource) FetchRates(ctx context.Context, currencyA, currencyB string) (Table, error) {
	if len(m.sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", common.ErrRateSource)
	}

	results := make([]Table, len(m.sources))
	errs := make([]error, len(m.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m.sources {
		g.Go(func() error {
			t, err := src.FetchRates(gctx, currencyA, currencyB)
			if err != nil {
				m.logger.Warn("Rate source failed", "source", src.Name(), "error", err)
				errs[i] = err
				return nil
			}
			results[i] = t
			return nil
		})
	}
	_ = g.Wait()

	merged := Table{}
	for _, t := range results {
		merged, _ = merged.Merge(t)
	}
	if len(merged) == 0 {
		err := errors.Join(errs...)
		if err == nil {
			err = common.ErrNoRates
		}
		return nil, fmt.Errorf("%w: all sources failed: %w", common.ErrRateSource, err)
	}
	return merged, nil
}
