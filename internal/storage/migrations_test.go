package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store := createTestStorage(t)

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
	assert.Equal(t, ExpectedSchemaVersion, migrations[len(migrations)-1].Version)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestMigrate_UpdatedAtColumn(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "v"))

	var updated string
	err := store.db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE key = 'k'`).Scan(&updated)
	require.NoError(t, err)
	assert.NotEmpty(t, updated)
}

func TestMigrate_FromVersionOne(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	tx, err := store.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, migrations[0].Up(tx))
	_, err = tx.Exec(`INSERT INTO kv (key, value) VALUES ('spread', '3')`)
	require.NoError(t, err)
	_, err = tx.Exec(`PRAGMA user_version = 1`)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, store.Migrate(ctx))
	v, found, err := store.Get(ctx, "spread")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "3", v)
}
