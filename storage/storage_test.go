package storage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikempala/social-rest/storage"
)

func memoryConfig() storage.Config {
	return storage.Config{
		Driver: storage.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	db, err := storage.Open(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, storage.Migrate(ctx, db, cfg.Driver))
	// second run is a no-op
	require.NoError(t, storage.Migrate(ctx, db, cfg.Driver))

	for _, table := range []string{"users", "social_accounts"} {
		var count int
		err := db.NewRaw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(ctx, &count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}

func TestMigrationsEnforceUniqueEmail(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	db, err := storage.Open(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, storage.Migrate(ctx, db, cfg.Driver))

	insert := "INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)"
	_, err = db.ExecContext(ctx, insert, uuid.NewString(), "jane@example.com", "Jane", "hash")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, uuid.NewString(), "jane@example.com", "Other", "hash")
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), storage.Config{Driver: "mongo"})
	assert.Error(t, err)
}

func TestMigrationDialect(t *testing.T) {
	assert.Equal(t, "postgres", storage.MigrationDialect(storage.DriverPostgres))
	assert.Equal(t, "sqlite", storage.MigrationDialect(storage.DriverSQLite))
	assert.Equal(t, "sqlite", storage.MigrationDialect(""))
}

func TestReadiness(t *testing.T) {
	ctx := context.Background()

	db, err := storage.Open(ctx, memoryConfig())
	require.NoError(t, err)

	ready := storage.NewReadiness(storage.DBChecker{DB: db})
	assert.NoError(t, ready.Ready(ctx))

	require.NoError(t, db.Close())

	err = ready.Ready(ctx)
	require.Error(t, err)

	var checkErr *storage.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, "database", checkErr.Name)
}
