package source

import (
	"context"
	"testing"

	"github.com/denismitr/blueprint/migration"
	"github.com/denismitr/blueprint/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySource(t *testing.T) {
	stocks := migration.CreateTable("2025_08_22_000005_create_stocks_table", "stocks", func(t *schema.Blueprint) {
		t.ID()
	})
	items := migration.CreateTable("2025_08_22_000004_create_items_table", "items", func(t *schema.Blueprint) {
		t.ID()
	})

	t.Run("migrations are sorted by order", func(t *testing.T) {
		s, err := NewInMemorySource(stocks, items)
		require.NoError(t, err)

		migrations, err := s.Select(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"2025_08_22_000004_create_items_table",
			"2025_08_22_000005_create_stocks_table",
		}, migrations.Keys())
	})

	t.Run("every select builds fresh migrations", func(t *testing.T) {
		s, err := NewInMemorySource(stocks, items)
		require.NoError(t, err)

		first, err := s.Select(context.Background(), Filter{})
		require.NoError(t, err)
		first[0].Version.Batch = 7

		second, err := s.Select(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Equal(t, migration.Batch(0), second[0].Version.Batch)
	})

	t.Run("filter by versions", func(t *testing.T) {
		s, err := NewInMemorySource(stocks, items)
		require.NoError(t, err)

		migrations, err := s.Select(context.Background(), Filter{Versions: []migration.Order{20250822000004}})
		require.NoError(t, err)
		assert.Equal(t, []string{"2025_08_22_000004_create_items_table"}, migrations.Keys())
	})

	t.Run("invalid keys are rejected on construction", func(t *testing.T) {
		_, err := NewInMemorySource(migration.CreateTable("items", "items", nil))
		require.Error(t, err)
		assert.True(t, errors.Is(err, migration.ErrInvalidMigrationKey))
	})

	t.Run("duplicate versions are rejected on construction", func(t *testing.T) {
		_, err := NewInMemorySource(items, items)
		require.Error(t, err)
		assert.True(t, errors.Is(err, migration.ErrDuplicateVersion))
	})

	t.Run("empty source", func(t *testing.T) {
		s, err := NewInMemorySource()
		require.NoError(t, err)

		_, err = s.Select(context.Background(), Filter{})
		assert.True(t, errors.Is(err, ErrNoMigrations))
	})
}
