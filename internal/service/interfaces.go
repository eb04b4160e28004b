// Package service defines the interfaces shared between application packages.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// KVStore is the opaque key-value persistence used for preferences, history and cached rates.
// Get reports found=false for absent keys without an error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// HistoryExporter writes the conversion history to an external destination.
type HistoryExporter interface {
	ExportHistory(ctx context.Context, entries []model.HistoryEntry) error
}

// RetryOptions configures retry behavior for external calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults fills unset fields with the standard backoff settings.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}

// StateStore persists calculator session state. Loading never fails on
// corrupt values; those keys fall back to defaults.
type StateStore interface {
	LoadState(ctx context.Context) (model.SessionState, error)
	SaveCurrencies(ctx context.Context, currencyA, currencyB string) error
	SaveSpread(ctx context.Context, spread string) error
	SaveHistory(ctx context.Context, entries []model.HistoryEntry) error
	SaveRates(ctx context.Context, rates map[string]float64) error
}
