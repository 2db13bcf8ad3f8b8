package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/migration"
	"github.com/denismitr/blueprint/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execRecorder struct {
	statements []string
}

func (r *execRecorder) Exec(_ context.Context, statement string) error {
	r.statements = append(r.statements, statement)
	return nil
}

func (r *execRecorder) HasTable(context.Context, string) (bool, error) {
	return false, nil
}

func (r *execRecorder) HasColumn(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *execRecorder) HasForeignKey(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (r *execRecorder) Grammar() schema.Grammar {
	return nil
}

func writeFiles(t *testing.T, folder string, files map[string]string) {
	t.Helper()

	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), []byte(contents), 0644))
	}
}

func TestLocalFileSource_Select(t *testing.T) {
	folder := t.TempDir()
	writeFiles(t, folder, map[string]string{
		"2025_08_22_000005_create_stocks_table.migrate.sql":  "CREATE TABLE stocks (id INTEGER);\nCREATE INDEX stocks_id ON stocks (id);\n",
		"2025_08_22_000005_create_stocks_table.rollback.sql": "DROP TABLE stocks;\n",
		"2025_08_22_000004_create_items_table.migrate.sql":   "-- items\nCREATE TABLE items (\n  id INTEGER\n);\n",
		"README.md": "not a migration",
	})

	lfs := NewLocalFileSource(folder, &logger.NullLogger{})

	t.Run("all migrations are read and sorted by order", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		migrations, err := lfs.Select(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, migrations, 2)

		assert.Equal(t, []string{
			"2025_08_22_000004_create_items_table",
			"2025_08_22_000005_create_stocks_table",
		}, migrations.Keys())

		assert.Equal(t, migration.Order(20250822000004), migrations[0].Version.Order)
		assert.Equal(t, "create_items_table", migrations[0].Version.Name)
		assert.Equal(t, migration.Order(20250822000005), migrations[1].Version.Order)
		assert.Equal(t, "create_stocks_table", migrations[1].Version.Name)
	})

	t.Run("scripts are split into statements", func(t *testing.T) {
		migrations, err := lfs.Select(context.Background(), Filter{})
		require.NoError(t, err)

		items := &execRecorder{}
		require.NoError(t, migrations[0].Apply(context.Background(), items))
		assert.Equal(t, []string{"CREATE TABLE items (\n  id INTEGER\n)"}, items.statements)

		stocks := &execRecorder{}
		require.NoError(t, migrations[1].Apply(context.Background(), stocks))
		require.NoError(t, migrations[1].Revert(context.Background(), stocks))
		assert.Equal(t, []string{
			"CREATE TABLE stocks (id INTEGER)",
			"CREATE INDEX stocks_id ON stocks (id)",
			"DROP TABLE stocks",
		}, stocks.statements)
	})

	t.Run("missing rollback file makes revert a no-op", func(t *testing.T) {
		migrations, err := lfs.Select(context.Background(), Filter{})
		require.NoError(t, err)

		r := &execRecorder{}
		require.NoError(t, migrations[0].Revert(context.Background(), r))
		assert.Empty(t, r.statements)
	})

	t.Run("migrations can be filtered by versions", func(t *testing.T) {
		migrations, err := lfs.Select(context.Background(), Filter{
			Versions: []migration.Order{20250822000005},
		})
		require.NoError(t, err)
		require.Len(t, migrations, 1)
		assert.Equal(t, "2025_08_22_000005_create_stocks_table", migrations[0].Key)
	})

	t.Run("filter matching nothing returns no migrations error", func(t *testing.T) {
		_, err := lfs.Select(context.Background(), Filter{Versions: []migration.Order{1596897167}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoMigrations))
	})

	t.Run("cancelled context stops reading", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := lfs.Select(ctx, Filter{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestLocalFileSource_SelectInvalidFolders(t *testing.T) {
	t.Run("rollback without migrate file", func(t *testing.T) {
		folder := t.TempDir()
		writeFiles(t, folder, map[string]string{
			"2025_08_22_000004_create_items_table.rollback.sql": "DROP TABLE items;",
		})

		_, err := NewLocalFileSource(folder, nil).Select(context.Background(), Filter{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingMigrateFile))
	})

	t.Run("malformed key", func(t *testing.T) {
		folder := t.TempDir()
		writeFiles(t, folder, map[string]string{
			"create_items_table.migrate.sql": "CREATE TABLE items (id INTEGER);",
		})

		_, err := NewLocalFileSource(folder, nil).Select(context.Background(), Filter{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, migration.ErrInvalidMigrationKey))
	})

	t.Run("duplicate versions", func(t *testing.T) {
		folder := t.TempDir()
		writeFiles(t, folder, map[string]string{
			"2025_08_22_000004_create_items_table.migrate.sql": "CREATE TABLE items (id INTEGER);",
			"20250822000004_create_goods_table.migrate.sql":    "CREATE TABLE goods (id INTEGER);",
		})

		_, err := NewLocalFileSource(folder, nil).Select(context.Background(), Filter{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, migration.ErrDuplicateVersion))
	})

	t.Run("empty folder", func(t *testing.T) {
		_, err := NewLocalFileSource(t.TempDir(), nil).Select(context.Background(), Filter{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoMigrations))
	})

	t.Run("missing folder", func(t *testing.T) {
		lfs := NewLocalFileSource(filepath.Join(t.TempDir(), "nope"), nil)
		assert.False(t, lfs.IsValid())

		_, err := lfs.Select(context.Background(), Filter{})
		assert.Error(t, err)
	})
}

func TestLocalFileSource_Create(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "migrations")
	lfs := NewLocalFileSource(folder, &logger.NullLogger{})
	lfs.SetClock(func() time.Time {
		return time.Date(2025, 8, 22, 0, 0, 5, 0, time.UTC)
	})

	_, err := lfs.Create("create stocks table", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMigrationsFolderMissing))

	require.NoError(t, lfs.Init())
	assert.True(t, lfs.IsValid())
	assert.Equal(t, folder, lfs.Folder())

	key, err := lfs.Create("Create Stocks Table", true)
	require.NoError(t, err)
	assert.Equal(t, "2025_08_22_000005_create_stocks_table", key)

	assert.FileExists(t, filepath.Join(folder, key+".migrate.sql"))
	assert.FileExists(t, filepath.Join(folder, key+".rollback.sql"))

	assert.True(t, lfs.AlreadyExists("create stocks table"))
	assert.True(t, lfs.AlreadyExists("create_stocks_table"))
	assert.False(t, lfs.AlreadyExists("create items table"))

	_, err = lfs.Create("create_stocks_table", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMigrationAlreadyExists))

	lfs.SetClock(func() time.Time {
		return time.Date(2025, 8, 22, 0, 0, 4, 0, time.UTC)
	})

	key, err = lfs.Create("create items table", false)
	require.NoError(t, err)
	assert.Equal(t, "2025_08_22_000004_create_items_table", key)
	assert.FileExists(t, filepath.Join(folder, key+".migrate.sql"))
	assert.NoFileExists(t, filepath.Join(folder, key+".rollback.sql"))

	_, err = lfs.Create("  ", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, migration.ErrInvalidMigrationKey))
}

func TestSplitStatements(t *testing.T) {
	tt := []struct {
		name     string
		contents string
		expected []string
	}{
		{name: "empty", contents: "", expected: nil},
		{name: "comments only", contents: "-- nothing here\n\n-- still nothing", expected: nil},
		{
			name:     "single statement without semicolon",
			contents: "DROP TABLE items",
			expected: []string{"DROP TABLE items"},
		},
		{
			name:     "multiline statements",
			contents: "CREATE TABLE items (\n  id INTEGER\n);\r\n\r\nINSERT INTO items (id) VALUES (1);\n",
			expected: []string{"CREATE TABLE items (\n  id INTEGER\n)", "INSERT INTO items (id) VALUES (1)"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitStatements(tc.contents))
		})
	}
}
