package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/history"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
	"github.com/Veraticus/the-spread-must-flow/internal/service"
)

// Defaults for a session with no saved state.
const (
	DefaultCurrencyA = "IDR"
	DefaultCurrencyB = "RUB"
	DefaultAmount    = "2000000"
)

// Session is one interactive calculator: four field buffers, the conversion
// context, the rate table and the history list. A single mutex guards every
// transition so a sync never observes a half-updated state.
type Session struct {
	store    service.StateStore
	sync     *Synchronizer
	recorder *history.Recorder
	logger   *slog.Logger
	table    rates.Table
	conv     Context
	history  []model.HistoryEntry
	fields   [4]calc.Accumulator
	quote    Quote
	active   model.Field
	mu       sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	store     service.StateStore
	sync      *Synchronizer
	recorder  *history.Recorder
	logger    *slog.Logger
	currencyA string
	currencyB string
	amount    string
}

// WithStore persists state changes. Without a store the session is in-memory only.
func WithStore(store service.StateStore) SessionOption {
	return func(c *sessionConfig) { c.store = store }
}

// WithSynchronizer sets the sync engine.
func WithSynchronizer(s *Synchronizer) SessionOption {
	return func(c *sessionConfig) { c.sync = s }
}

// WithRecorder sets the history recorder.
func WithRecorder(r *history.Recorder) SessionOption {
	return func(c *sessionConfig) { c.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// WithDefaultCurrencies sets the pair used when no saved selection exists.
func WithDefaultCurrencies(currencyA, currencyB string) SessionOption {
	return func(c *sessionConfig) {
		c.currencyA = currencyA
		c.currencyB = currencyB
	}
}

// WithInitialAmount seeds the A field.
func WithInitialAmount(amount string) SessionOption {
	return func(c *sessionConfig) { c.amount = amount }
}

// NewSession restores a session from saved state. Invalid saved currencies are
// replaced by the defaults and saved rates are merged over the fallback table.
func NewSession(state model.SessionState, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		currencyA: DefaultCurrencyA,
		currencyB: DefaultCurrencyB,
		amount:    DefaultAmount,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sync == nil {
		cfg.sync = NewSynchronizer(nil, DefaultPrecision())
	}
	if cfg.recorder == nil {
		cfg.recorder = history.NewRecorder()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	table, _ := rates.Fallback().Merge(state.Rates)
	s := &Session{
		store:    cfg.store,
		sync:     cfg.sync,
		recorder: cfg.recorder,
		logger:   cfg.logger,
		table:    table,
		conv: Context{
			CurrencyA: pickCode(state.CurrencyA, cfg.currencyA),
			CurrencyB: pickCode(state.CurrencyB, cfg.currencyB),
		},
		history: cfg.recorder.Trim(slices.Clone(state.History)),
		active:  model.FieldA,
	}
	s.fields[model.FieldA] = calc.NewAccumulator(cfg.amount)
	s.fields[model.FieldSpread] = calc.NewAccumulator(state.Spread)
	s.conv.SpreadPercent = calc.Value(state.Spread)
	s.resyncLocked()
	return s
}

func pickCode(saved, fallback string) string {
	if code := model.NormalizeCode(saved); model.IsValidCode(code) {
		return code
	}
	return model.NormalizeCode(fallback)
}

// Activate makes f the field receiving keys and marks it for fresh entry.
// An unevaluated expression left in the previous field is collapsed to its
// value so only one field ever holds an open expression. Nothing is recorded
// in history.
func (s *Session) Activate(ctx context.Context, f model.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.active; prev != f && calc.Pending(s.fields[prev].Text()) {
		s.fields[prev].Set(calc.EvaluateString(s.fields[prev].Text()))
		s.syncLocked(prev)
		if prev == model.FieldSpread {
			s.save(ctx, "spread", func(ctx context.Context) error {
				return s.store.SaveSpread(ctx, s.fields[model.FieldSpread].Text())
			})
		}
	}
	s.active = f
	s.fields[f].Activate()
}

// Active returns the field receiving keys.
func (s *Session) Active() model.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Press applies a key to the active field and re-syncs. Clear records the
// conversion before wiping the field; evaluate records it after the result
// has been synced. It reports whether any buffer changed.
func (s *Session) Press(ctx context.Context, k calc.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k == calc.KeyClear {
		s.flushLocked(ctx)
	}

	field := s.active
	changed := s.fields[field].Press(k)
	if changed || k == calc.KeyEquals {
		s.syncLocked(field)
	}
	if changed && field == model.FieldSpread {
		s.save(ctx, "spread", func(ctx context.Context) error {
			return s.store.SaveSpread(ctx, s.fields[model.FieldSpread].Text())
		})
	}

	if k == calc.KeyEquals {
		s.flushLocked(ctx)
	}
	return changed
}

// SetField replaces a field's buffer with text, as if typed, and syncs from it.
func (s *Session) SetField(ctx context.Context, f model.Field, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields[f].Set(calc.Clean(text))
	s.syncLocked(f)
	if f == model.FieldSpread {
		s.save(ctx, "spread", func(ctx context.Context) error {
			return s.store.SaveSpread(ctx, s.fields[model.FieldSpread].Text())
		})
	}
}

// SetCurrencyA changes currency A and re-syncs from the A amount.
func (s *Session) SetCurrencyA(ctx context.Context, code string) error {
	return s.setCurrencies(ctx, code, "")
}

// SetCurrencyB changes currency B and re-syncs from the A amount.
func (s *Session) SetCurrencyB(ctx context.Context, code string) error {
	return s.setCurrencies(ctx, "", code)
}

// SwapCurrencies exchanges A and B and re-syncs from the A amount.
func (s *Session) SwapCurrencies(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.CurrencyA, s.conv.CurrencyB = s.conv.CurrencyB, s.conv.CurrencyA
	s.currenciesChangedLocked(ctx)
}

func (s *Session) setCurrencies(ctx context.Context, currencyA, currencyB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.conv
	if currencyA != "" {
		next.CurrencyA = model.NormalizeCode(currencyA)
	}
	if currencyB != "" {
		next.CurrencyB = model.NormalizeCode(currencyB)
	}
	for _, code := range []string{next.CurrencyA, next.CurrencyB} {
		if !model.IsValidCode(code) {
			return common.NewUserError(fmt.Sprintf("%q is not a currency code", code), common.ErrInvalidConfig)
		}
	}
	if next == s.conv {
		return nil
	}

	s.conv = next
	s.currenciesChangedLocked(ctx)
	return nil
}

func (s *Session) currenciesChangedLocked(ctx context.Context) {
	s.resyncLocked()
	a, b := s.conv.CurrencyA, s.conv.CurrencyB
	s.save(ctx, "currencies", func(ctx context.Context) error {
		return s.store.SaveCurrencies(ctx, a, b)
	})
}

// ApplyRates merges fresh rates into the table and, when anything was taken,
// re-syncs once from the A amount. It returns the number of rates applied.
func (s *Session) ApplyRates(ctx context.Context, updates rates.Table) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, applied := s.table.Merge(updates)
	if applied == 0 {
		return 0
	}
	s.table = merged
	s.resyncLocked()

	snapshot := merged.Clone()
	s.save(ctx, "rates", func(ctx context.Context) error {
		return s.store.SaveRates(ctx, snapshot)
	})
	s.logger.Debug("Applied rates", "count", applied, "base_rate", s.quote.BaseRate)
	return applied
}

// Flush records the current conversion if it is meaningful.
func (s *Session) Flush(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// Close performs the terminal history flush.
func (s *Session) Close(ctx context.Context) {
	if s.Flush(ctx) {
		s.logger.Debug("Recorded conversion on session end")
	}
}

// History returns a copy of the history, newest first.
func (s *Session) History() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// DeleteHistory removes one entry by id.
func (s *Session) DeleteHistory(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, removed := history.Delete(s.history, id)
	if !removed {
		return false
	}
	s.history = out
	s.saveHistoryLocked(ctx)
	return true
}

// ClearHistory removes every entry.
func (s *Session) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.saveHistoryLocked(ctx)
}

// Rates returns a copy of the current rate table.
func (s *Session) Rates() rates.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Clone()
}

// Currencies returns the selected pair.
func (s *Session) Currencies() (currencyA, currencyB string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.CurrencyA, s.conv.CurrencyB
}

// View is a consistent snapshot of the session for rendering.
type View struct {
	Buffers   [4]string
	CurrencyA string
	CurrencyB string
	Quote
	Spread  float64
	Active  model.Field
	Fresh   bool
	Entries int
}

// Buffer returns the raw buffer of f.
func (v View) Buffer(f model.Field) string {
	return v.Buffers[f]
}

// View returns a snapshot of the fields and rates.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		CurrencyA: s.conv.CurrencyA,
		CurrencyB: s.conv.CurrencyB,
		Spread:    s.conv.SpreadPercent,
		Quote:     s.quote,
		Active:    s.active,
		Fresh:     s.fields[s.active].Fresh(),
		Entries:   len(s.history),
	}
	for _, f := range model.Fields {
		v.Buffers[f] = s.fields[f].Text()
	}
	return v
}

// syncLocked re-derives every other field from f.
func (s *Session) syncLocked(f model.Field) {
	res := s.sync.Sync(Request{
		Field:   f,
		Raw:     s.fields[f].Text(),
		Anchor:  s.fields[model.FieldA].Text(),
		Context: s.conv,
	}, s.table)

	if f == model.FieldSpread {
		s.conv.SpreadPercent = calc.Value(res.Spread)
	}
	for _, other := range []model.Field{model.FieldA, model.FieldB, model.FieldUSD} {
		if other != f {
			s.fields[other].Set(res.Buffer(other))
		}
	}
	s.quote = res.Quote
}

// resyncLocked handles external triggers (rates or currencies changed): the A amount is always the anchor.
func (s *Session) resyncLocked() {
	s.syncLocked(model.FieldA)
}

func (s *Session) flushLocked(ctx context.Context) bool {
	out, added := s.recorder.Record(s.history, model.Conversion{
		FromCurrency:  s.conv.CurrencyA,
		FromRaw:       s.fields[model.FieldA].Text(),
		ToCurrency:    s.conv.CurrencyB,
		ToRaw:         s.fields[model.FieldB].Text(),
		SpreadPercent: s.conv.SpreadPercent,
		Rate:          s.quote.EffectiveRate,
		BaseRate:      s.quote.BaseRate,
	})
	if !added {
		return false
	}
	s.history = out
	s.saveHistoryLocked(ctx)
	return true
}

func (s *Session) saveHistoryLocked(ctx context.Context) {
	entries := slices.Clone(s.history)
	s.save(ctx, "history", func(ctx context.Context) error {
		return s.store.SaveHistory(ctx, entries)
	})
}

// save runs a store write. Failures are logged and never reach the caller.
func (s *Session) save(ctx context.Context, what string, fn func(context.Context) error) {
	if s.store == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.logger.Warn("Failed to persist session state", "key", what, "error", err)
	}
}
