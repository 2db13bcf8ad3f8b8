package cli

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/denismitr/blueprint"
	"github.com/denismitr/blueprint/inventory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DatabaseURL = "sqlite:" + filepath.Join(dir, "inventory.db")
	cfg.MigrationsFolder = filepath.Join(dir, "migrations")
	cfg.Logging.Color = false

	return cfg
}

func TestApp_LocalFolder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := sqliteConfig(t)
	var out bytes.Buffer

	app, closer, err := New(cfg, log.New(&out, "", 0))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, closer())
	}()

	_, err = app.CreateMigration("create items table", true)
	assert.True(t, errors.Is(err, ErrFolderInvalid))

	require.NoError(t, InitFolder(cfg.MigrationsFolder))

	key, err := app.CreateMigration("create items table", true)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}_\d{2}_\d{2}_\d{6}_create_items_table$`, key)

	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.MigrationsFolder, key+".migrate.sql"),
		[]byte("CREATE TABLE items (id INTEGER PRIMARY KEY, name VARCHAR(255) NOT NULL);"),
		0644,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.MigrationsFolder, key+".rollback.sql"),
		[]byte("DROP TABLE IF EXISTS items;"),
		0644,
	))

	migrated, err := app.Migrate(ctx, ActionConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{key}, migrated.Keys())
	assert.Contains(t, out.String(), "CREATE TABLE items")

	states, err := app.Status(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, states[0].Applied)

	_, err = app.Migrate(ctx, ActionConfig{})
	assert.True(t, errors.Is(err, blueprint.ErrNoChangesRequired))

	rolledBack, migrated, err := app.Refresh(ctx, ActionConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{key}, rolledBack.Keys())
	assert.Equal(t, []string{key}, migrated.Keys())

	rolledBack, err = app.Rollback(ctx, ActionConfig{Versions: []string{key}})
	require.NoError(t, err)
	assert.Equal(t, []string{key}, rolledBack.Keys())

	_, err = app.Rollback(ctx, ActionConfig{Versions: []string{"not a version"}})
	assert.Error(t, err)
}

func TestApp_InventorySource(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, closer, err := New(
		sqliteConfig(t),
		log.New(&bytes.Buffer{}, "", 0),
		blueprint.UseInMemorySource(inventory.Migrations()...),
	)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, closer())
	}()

	_, err = app.CreateMigration("create orders table", false)
	assert.True(t, errors.Is(err, ErrSourceTypeIsNotValid))

	migrated, err := app.Migrate(ctx, ActionConfig{Steps: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{inventory.CreateItemsTableKey}, migrated.Keys())

	migrated, err = app.Migrate(ctx, ActionConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{inventory.CreateStocksTableKey}, migrated.Keys())

	rolledBack, err := app.Rollback(ctx, ActionConfig{Steps: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{inventory.CreateStocksTableKey, inventory.CreateItemsTableKey}, rolledBack.Keys())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, _, err := New(Config{MigrationsFolder: "./migrations"}, log.New(&bytes.Buffer{}, "", 0))
	assert.True(t, errors.Is(err, ErrDatabaseURLMissing))

	_, _, err = New(Config{DatabaseURL: "oracle://localhost/inventory", MigrationsFolder: "./migrations"}, log.New(&bytes.Buffer{}, "", 0))
	assert.Error(t, err)
}
