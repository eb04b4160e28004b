// Package history records completed conversions and summarizes them.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// DefaultMaxEntries is the default history cap.
const DefaultMaxEntries = 50

// Recorder turns conversion snapshots into history entries.
// Lists are ordered newest first and never exceed the configured maximum.
type Recorder struct {
	now   func() time.Time
	newID func() string
	max   int
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMaxEntries caps the history length. Values below 1 are ignored.
func WithMaxEntries(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.max = n
		}
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithIDGenerator sets the entry ID source.
func WithIDGenerator(newID func() string) Option {
	return func(r *Recorder) {
		r.newID = newID
	}
}

// NewRecorder creates a recorder with random UUID ids.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		max:   DefaultMaxEntries,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Max returns the history cap.
func (r *Recorder) Max() int {
	return r.max
}

// Record prepends an entry for c when it is meaningful. Conversions with a zero
// or unparseable amount, and repeats of the newest entry, are skipped. The input
// slice is never modified.
func (r *Recorder) Record(existing []model.HistoryEntry, c model.Conversion) ([]model.HistoryEntry, bool) {
	from, err := calc.Evaluate(c.FromRaw)
	if err != nil || from == 0 {
		return existing, false
	}
	to, err := calc.Evaluate(c.ToRaw)
	if err != nil || to == 0 {
		return existing, false
	}

	fromCurrency := model.NormalizeCode(c.FromCurrency)
	toCurrency := model.NormalizeCode(c.ToCurrency)
	if len(existing) > 0 {
		head := existing[0]
		if head.FromCurrency == fromCurrency && head.ToCurrency == toCurrency &&
			head.FromAmount == from && head.ToAmount == to {
			return existing, false
		}
	}

	entry := model.HistoryEntry{
		ID:            r.newID(),
		Timestamp:     r.now(),
		FromCurrency:  fromCurrency,
		FromAmount:    from,
		ToCurrency:    toCurrency,
		ToAmount:      to,
		SpreadPercent: c.SpreadPercent,
		Rate:          c.Rate,
		BaseRate:      c.BaseRate,
	}

	out := make([]model.HistoryEntry, 0, min(len(existing)+1, r.max))
	out = append(out, entry)
	out = append(out, existing...)
	return r.Trim(out), true
}

// Trim drops the oldest entries beyond the cap.
func (r *Recorder) Trim(entries []model.HistoryEntry) []model.HistoryEntry {
	if len(entries) > r.max {
		return entries[:r.max]
	}
	return entries
}

// Delete returns entries without the one matching id.
func Delete(entries []model.HistoryEntry, id string) ([]model.HistoryEntry, bool) {
	out := make([]model.HistoryEntry, 0, len(entries))
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		out = append(out, e)
	}
	if !found {
		return entries, false
	}
	return out, true
}

// Find returns the entry with the given id or the one whose id starts with it,
// when that prefix is unambiguous.
func Find(entries []model.HistoryEntry, id string) (model.HistoryEntry, bool) {
	var match model.HistoryEntry
	matches := 0
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
		if id != "" && len(e.ID) > len(id) && e.ID[:len(id)] == id {
			match = e
			matches++
		}
	}
	return match, matches == 1
}
