package blueprint

import (
	"database/sql"
	"testing"
	"time"

	"github.com/denismitr/blueprint/internal/database/sqlgateway"
	"github.com/denismitr/blueprint/internal/database/sqlgateway/mysql"
	"github.com/denismitr/blueprint/internal/database/sqlgateway/postgres"
	"github.com/denismitr/blueprint/internal/database/sqlgateway/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseMySQL(t *testing.T) {
	t.Parallel()

	t.Run("default mysql options", func(t *testing.T) {
		m := Migrator{}
		checkerRuns := 0
		checker := func(mysqlOpts *mysql.Options, cOpts *sqlgateway.ConnectOptions) {
			assert.Equal(t, "migrations", mysqlOpts.MigrationsTable)
			assert.Equal(t, "blueprint_migrations", mysqlOpts.LockKey)
			assert.Equal(t, 3, mysqlOpts.LockFor)
			assert.Equal(t, "utf8mb4", mysqlOpts.Charset)
			assert.False(t, mysqlOpts.NoLock)
			assert.Equal(t, sqlgateway.DefaultConnectionAttempts, cOpts.MaxAttempts)
			checkerRuns++
		}

		err := UseMySQL(&sql.DB{}, checker)(&m)
		require.NoError(t, err)
		require.Equal(t, 1, checkerRuns)
		assert.NotNil(t, m.gateway)
	})

	t.Run("default mysql options no lock", func(t *testing.T) {
		m := Migrator{}

		checkerRuns := 0
		checker := func(mysqlOpts *mysql.Options, cOpts *sqlgateway.ConnectOptions) {
			assert.Equal(t, "migrations", mysqlOpts.MigrationsTable)
			assert.Equal(t, "blueprint_migrations", mysqlOpts.LockKey)
			assert.True(t, mysqlOpts.NoLock)
			checkerRuns++
		}

		err := UseMySQL(&sql.DB{}, WithMySQLNoLock(), checker)(&m)
		require.NoError(t, err)
		require.Equal(t, 1, checkerRuns)
	})

	t.Run("custom mysql options", func(t *testing.T) {
		m := Migrator{}

		checkerRuns := 0
		checker := func(mysqlOpts *mysql.Options, cOpts *sqlgateway.ConnectOptions) {
			assert.Equal(t, "versions", mysqlOpts.MigrationsTable)
			assert.Equal(t, "foo", mysqlOpts.LockKey)
			assert.Equal(t, 5, mysqlOpts.LockFor)
			assert.Equal(t, "utf8", mysqlOpts.Charset)
			assert.False(t, mysqlOpts.NoLock, "lock expected")
			assert.Equal(t, 7, cOpts.MaxAttempts)
			assert.Equal(t, 2*time.Second, cOpts.MaxTimeout)
			checkerRuns++
		}

		err := UseMySQL(
			&sql.DB{},
			WithMySQLMigrationTable("versions"),
			WithMySQLLockFor(5),
			WithMySQLLockKey("foo"),
			WithMySQLCharset("utf8"),
			WithMySQLMaxConnectionAttempts(7),
			WithMySQLConnectionTimeout(2*time.Second),
			checker,
		)(&m)

		require.NoError(t, err)
		require.Equal(t, 1, checkerRuns)
	})
}

func TestUsePostgres(t *testing.T) {
	t.Parallel()

	t.Run("default postgres options", func(t *testing.T) {
		m := Migrator{}
		checkerRuns := 0
		checker := func(pgOpts *postgres.Options, cOpts *sqlgateway.ConnectOptions) {
			assert.Equal(t, "migrations", pgOpts.MigrationsTable)
			assert.Equal(t, int64(postgres.DefaultLockKey), pgOpts.LockKey)
			assert.False(t, pgOpts.NoLock)
			checkerRuns++
		}

		require.NoError(t, UsePostgres(&sql.DB{}, checker)(&m))
		require.Equal(t, 1, checkerRuns)
		assert.NotNil(t, m.gateway)
	})

	t.Run("custom postgres options", func(t *testing.T) {
		m := Migrator{}
		checkerRuns := 0
		checker := func(pgOpts *postgres.Options, cOpts *sqlgateway.ConnectOptions) {
			assert.Equal(t, "versions", pgOpts.MigrationsTable)
			assert.Equal(t, int64(42), pgOpts.LockKey)
			assert.True(t, pgOpts.NoLock)
			assert.Equal(t, 2, cOpts.MaxAttempts)
			assert.Equal(t, time.Second, cOpts.MaxTimeout)
			checkerRuns++
		}

		err := UsePostgres(
			&sql.DB{},
			WithPostgresMigrationTable("versions"),
			WithPostgresLockKey(42),
			WithPostgresNoLock(),
			WithPostgresMaxConnectionAttempts(2),
			WithPostgresConnectionTimeout(time.Second),
			checker,
		)(&m)

		require.NoError(t, err)
		require.Equal(t, 1, checkerRuns)
	})
}

func TestUseSqlite(t *testing.T) {
	t.Parallel()

	m := Migrator{}
	checkerRuns := 0
	checker := func(sqliteOpts *sqlite.Options, cOpts *sqlgateway.ConnectOptions) {
		assert.Equal(t, "versions", sqliteOpts.MigrationsTable)
		assert.True(t, sqliteOpts.DisableForeignKeys)
		assert.Equal(t, 3, cOpts.MaxAttempts)
		assert.Equal(t, time.Second, cOpts.MaxTimeout)
		checkerRuns++
	}

	err := UseSqlite(
		&sql.DB{},
		WithSqliteMigrationTable("versions"),
		WithSqliteNoForeignKeys(),
		WithSqliteMaxConnectionAttempts(3),
		WithSqliteConnectionTimeout(time.Second),
		checker,
	)(&m)

	require.NoError(t, err)
	require.Equal(t, 1, checkerRuns)
	assert.NotNil(t, m.gateway)
}
