package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
	"github.com/Veraticus/the-spread-must-flow/internal/service"
)

// Keys used for calculator state.
const (
	KeyCurrencyA = "currency_a"
	KeyCurrencyB = "currency_b"
	KeySpread    = "spread"
	KeyHistory   = "history"
	KeyRates     = "rates"
)

// Preferences maps session state onto a key-value store. Each key is
// independent: a corrupt value only resets that key.
type Preferences struct {
	kv         service.KVStore
	logger     *slog.Logger
	maxHistory int
}

// NewPreferences wraps kv. History lists longer than maxHistory are truncated
// when saved; maxHistory <= 0 disables the cap.
func NewPreferences(kv service.KVStore, logger *slog.Logger, maxHistory int) *Preferences {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preferences{kv: kv, logger: logger, maxHistory: maxHistory}
}

// LoadState reads every key. Read failures and corrupt values are logged and
// replaced by the zero value for that key; only a nil context is an error.
func (p *Preferences) LoadState(ctx context.Context) (model.SessionState, error) {
	if err := validateContext(ctx); err != nil {
		return model.SessionState{}, err
	}

	var state model.SessionState
	state.CurrencyA = p.loadCode(ctx, KeyCurrencyA)
	state.CurrencyB = p.loadCode(ctx, KeyCurrencyB)
	state.Spread, _ = p.get(ctx, KeySpread)
	state.History = p.loadHistory(ctx)
	state.Rates = p.loadRates(ctx)
	return state, nil
}

// LoadHistory reads the history list alone.
func (p *Preferences) LoadHistory(ctx context.Context) []model.HistoryEntry {
	return p.loadHistory(ctx)
}

// LoadRates reads the cached rate table alone.
func (p *Preferences) LoadRates(ctx context.Context) rates.Table {
	return p.loadRates(ctx)
}

// SaveCurrencies implements service.StateStore.
func (p *Preferences) SaveCurrencies(ctx context.Context, currencyA, currencyB string) error {
	if err := p.kv.Set(ctx, KeyCurrencyA, currencyA); err != nil {
		return err
	}
	return p.kv.Set(ctx, KeyCurrencyB, currencyB)
}

// SaveSpread implements service.StateStore.
func (p *Preferences) SaveSpread(ctx context.Context, spread string) error {
	return p.kv.Set(ctx, KeySpread, spread)
}

// SaveHistory implements service.StateStore.
func (p *Preferences) SaveHistory(ctx context.Context, entries []model.HistoryEntry) error {
	if p.maxHistory > 0 && len(entries) > p.maxHistory {
		entries = entries[:p.maxHistory]
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return p.setJSON(ctx, KeyHistory, entries)
}

// SaveRates implements service.StateStore.
func (p *Preferences) SaveRates(ctx context.Context, table map[string]float64) error {
	return p.setJSON(ctx, KeyRates, rates.Table(table).Sanitize())
}

func (p *Preferences) get(ctx context.Context, key string) (string, bool) {
	v, found, err := p.kv.Get(ctx, key)
	if err != nil {
		p.logger.Warn("Failed to read saved state, using default", "key", key, "error", err)
		return "", false
	}
	return v, found
}

func (p *Preferences) loadCode(ctx context.Context, key string) string {
	v, found := p.get(ctx, key)
	if !found {
		return ""
	}
	code := model.NormalizeCode(v)
	if !model.IsValidCode(code) {
		p.corrupt(key, fmt.Errorf("invalid currency code %q", v))
		return ""
	}
	return code
}

func (p *Preferences) loadHistory(ctx context.Context) []model.HistoryEntry {
	v, found := p.get(ctx, KeyHistory)
	if !found {
		return nil
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal([]byte(v), &entries); err != nil {
		p.corrupt(KeyHistory, err)
		return nil
	}
	if p.maxHistory > 0 && len(entries) > p.maxHistory {
		entries = entries[:p.maxHistory]
	}
	return entries
}

func (p *Preferences) loadRates(ctx context.Context) rates.Table {
	v, found := p.get(ctx, KeyRates)
	if !found {
		return nil
	}
	var table rates.Table
	if err := json.Unmarshal([]byte(v), &table); err != nil {
		p.corrupt(KeyRates, err)
		return nil
	}
	return table.Sanitize()
}

func (p *Preferences) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return p.kv.Set(ctx, key, string(data))
}

func (p *Preferences) corrupt(key string, err error) {
	p.logger.Warn("Ignoring saved state",
		"key", key,
		"error", fmt.Errorf("%w: %w", common.ErrCorruptState, err))
}
