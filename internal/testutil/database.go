// Package testutil provides shared fixtures for tests that need a real store.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
	"github.com/Veraticus/the-spread-must-flow/internal/storage"
)

// TestDB is a migrated SQLite store plus the preferences view over it.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Prefs   *storage.Preferences
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t).
//		WithHistory(testutil.NewHistoryBuilder().Conversion("IDR", "RUB", 2000000, 9400).Build()...)
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return OpenTestDB(t, ":memory:")
}

// OpenTestDB opens a migrated database at path and closes it on cleanup.
// Closing early with Close is allowed.
func OpenTestDB(t *testing.T, path string) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		Prefs:   storage.NewPreferences(store, nil, 0),
		t:       t,
	}
}

// WithHistory saves entries as the history list.
func (db *TestDB) WithHistory(entries ...model.HistoryEntry) *TestDB {
	db.t.Helper()
	if err := db.Prefs.SaveHistory(context.Background(), entries); err != nil {
		db.t.Fatalf("failed to seed history: %v", err)
	}
	return db
}

// WithRates saves table as the cached rate table.
func (db *TestDB) WithRates(table rates.Table) *TestDB {
	db.t.Helper()
	if err := db.Prefs.SaveRates(context.Background(), table); err != nil {
		db.t.Fatalf("failed to seed rates: %v", err)
	}
	return db
}

// WithCurrencies saves the selected pair.
func (db *TestDB) WithCurrencies(currencyA, currencyB string) *TestDB {
	db.t.Helper()
	if err := db.Prefs.SaveCurrencies(context.Background(), currencyA, currencyB); err != nil {
		db.t.Fatalf("failed to seed currencies: %v", err)
	}
	return db
}

// Close closes the store before cleanup runs, for tests that reopen the file.
func (db *TestDB) Close() {
	db.t.Helper()
	if err := db.Storage.Close(); err != nil {
		db.t.Fatalf("failed to close test database: %v", err)
	}
}
