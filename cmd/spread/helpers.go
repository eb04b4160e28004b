package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-spread-must-flow/internal/config"
	"github.com/Veraticus/the-spread-must-flow/internal/engine"
	"github.com/Veraticus/the-spread-must-flow/internal/history"
	"github.com/Veraticus/the-spread-must-flow/internal/llm"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
	"github.com/Veraticus/the-spread-must-flow/internal/service"
	"github.com/Veraticus/the-spread-must-flow/internal/storage"
)

// app bundles what most commands need: validated config, the open store and
// the preferences view over it.
type app struct {
	cfg    *config.Config
	store  *storage.SQLiteStorage
	prefs  *storage.Preferences
	logger *slog.Logger
	llm    *llm.ManagedClient
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the database and runs migrations.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	return &app{
		cfg:    cfg,
		store:  store,
		prefs:  storage.NewPreferences(store, logger, cfg.History.Max),
		logger: logger,
	}, nil
}

func (a *app) Close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

func (a *app) synchronizer() *engine.Synchronizer {
	return engine.NewSynchronizer(rates.NewResolver(), engine.Precision{
		A:   a.cfg.Precision.A,
		B:   a.cfg.Precision.B,
		USD: a.cfg.Precision.USD,
	})
}

// newSession restores the saved calculator state.
func (a *app) newSession(ctx context.Context) (*engine.Session, error) {
	state, err := a.prefs.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved state: %w", err)
	}

	return engine.NewSession(state,
		engine.WithStore(a.prefs),
		engine.WithSynchronizer(a.synchronizer()),
		engine.WithRecorder(history.NewRecorder(history.WithMaxEntries(a.cfg.History.Max))),
		engine.WithLogger(a.logger),
		engine.WithDefaultCurrencies(a.cfg.Defaults.CurrencyA, a.cfg.Defaults.CurrencyB),
	), nil
}

// rateTable is the fallback table with cached rates merged over it.
func (a *app) rateTable(ctx context.Context) rates.Table {
	table, _ := rates.Fallback().Merge(a.prefs.LoadRates(ctx))
	return table
}

// buildSource assembles the configured rate sources.
func (a *app) buildSource() (rates.Source, error) {
	var sources []rates.Source
	for _, name := range a.cfg.Sources {
		switch name {
		case "yahoo":
			sources = append(sources, rates.NewYahooSource(rates.WithYahooLogger(a.logger)))
		case "llm":
			client, err := llm.NewManagedClient(a.cfg.LLM.ClientConfig(a.cfg.Refresh.Retries), a.logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create LLM client: %w", err)
			}
			a.llm = client
			sources = append(sources, rates.NewLLMSource(client))
		default:
			return nil, fmt.Errorf("unknown rate source %q", name)
		}
	}

	if len(sources) == 1 {
		return sources[0], nil
	}
	return rates.NewMultiSource(a.logger, sources...), nil
}

func (a *app) newRefresher(source rates.Source, currencies rates.CurrenciesFunc, onRates func(rates.Table)) *rates.Refresher {
	return rates.NewRefresher(source, currencies, onRates,
		rates.WithInterval(a.cfg.Refresh.Interval),
		rates.WithRetryOptions(service.RetryOptions{MaxAttempts: a.cfg.Refresh.Retries + 1}),
		rates.WithRefresherLogger(a.logger),
	)
}
