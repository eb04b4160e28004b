package rates

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/service"
)

// DefaultRefreshInterval matches the ten-minute polling cadence of the calculator.
const DefaultRefreshInterval = 10 * time.Minute

// CurrenciesFunc reports the currency pair a refresh should cover.
type CurrenciesFunc func() (currencyA, currencyB string)

// Refresher periodically pulls rates from a Source. At most one fetch runs at a
// time; callers that ask for a refresh while one is in flight share its result.
type Refresher struct {
	source     Source
	currencies CurrenciesFunc
	onRates    func(Table)
	logger     *slog.Logger
	cron       *cron.Cron
	cancel     context.CancelFunc
	group      singleflight.Group
	retry      service.RetryOptions
	interval   time.Duration
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithInterval sets the refresh period.
func WithInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRetryOptions sets the backoff used for each refresh.
func WithRetryOptions(opts service.RetryOptions) RefresherOption {
	return func(r *Refresher) {
		r.retry = opts
	}
}

// WithRefresherLogger sets the logger.
func WithRefresherLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRefresher creates a refresher. onRates receives every successful fetch exactly once.
func NewRefresher(source Source, currencies CurrenciesFunc, onRates func(Table), opts ...RefresherOption) *Refresher {
	r := &Refresher{
		source:     source,
		currencies: currencies,
		onRates:    onRates,
		logger:     slog.Default(),
		interval:   DefaultRefreshInterval,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interval returns the refresh period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Refresh fetches rates now. A concurrent call joins the fetch already in flight.
func (r *Refresher) Refresh(ctx context.Context) (Table, error) {
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.fetch(ctx)
	})
	if shared {
		r.logger.Debug("Joined in-flight rate refresh")
	}
	if err != nil {
		return nil, err
	}
	return v.(Table), nil
}

func (r *Refresher) fetch(ctx context.Context) (Table, error) {
	currencyA, currencyB := r.currencies()
	start := time.Now()

	var table Table
	err := common.WithRetry(ctx, func() error {
		t, err := r.source.FetchRates(ctx, currencyA, currencyB)
		if err != nil {
			return err
		}
		table = t
		return nil
	}, r.retry)
	if err != nil {
		return nil, fmt.Errorf("refresh %s/%s from %s: %w", currencyA, currencyB, r.source.Name(), err)
	}

	r.logger.Info("Rates refreshed",
		"source", r.source.Name(),
		"pairs", len(table),
		"duration", time.Since(start))

	if r.onRates != nil {
		r.onRates(table)
	}
	return table, nil
}

// Start fetches once in the background and then on every interval until Stop
// is called or ctx is canceled.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return fmt.Errorf("refresher already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), func() { r.tick(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	r.cron = c
	r.cancel = cancel
	c.Start()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.tick(ctx)
	}()

	r.logger.Debug("Rate refresher started", "interval", r.interval)
	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.Refresh(ctx); err != nil {
		// The previous table stays in effect until the next tick.
		r.logger.Warn("Rate refresh failed", "error", err)
	}
}

// Stop cancels any in-flight fetch and waits for scheduled jobs to finish.
// It is safe to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	r.wg.Wait()
	r.logger.Debug("Rate refresher stopped")
}
