package blueprint

import (
	"database/sql"
	"time"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/database/sqlgateway"
	"github.com/denismitr/blueprint/internal/database/sqlgateway/sqlite"
)

type SqliteOptionFunc func(*sqlite.Options, *sqlgateway.ConnectOptions)

// UseSqlite runs migrations against a SQLite database,
// foreign keys are enforced on the migrator connection unless disabled
func UseSqlite(db *sql.DB, options ...SqliteOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		sqliteOpts := &sqlite.Options{
			CommonOptions: database.CommonOptions{
				MigrationsTable: database.DefaultMigrationsTable,
			},
		}

		connectOpts := sqlgateway.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(sqliteOpts, connectOpts)
		}

		var initializers []sqlgateway.ConnInitializer
		if !sqliteOpts.DisableForeignKeys {
			initializers = append(initializers, sqlite.EnableForeignKeys)
		}

		connector := sqlgateway.MakeRetryingConnector(db, connectOpts, initializers...)
		m.gateway = sqlgateway.New(
			connector,
			sqlgateway.NullLocker{},
			sqlite.NewDialect(sqliteOpts.MigrationsTable),
			sqliteOpts.MigrationsTable,
		)

		return nil
	}
}

func WithSqliteMigrationTable(migrationTable string) SqliteOptionFunc {
	return func(sqliteOpts *sqlite.Options, connectOpts *sqlgateway.ConnectOptions) {
		sqliteOpts.MigrationsTable = migrationTable
	}
}

func WithSqliteNoForeignKeys() SqliteOptionFunc {
	return func(sqliteOpts *sqlite.Options, connectOpts *sqlgateway.ConnectOptions) {
		sqliteOpts.DisableForeignKeys = true
	}
}

func WithSqliteMaxConnectionAttempts(attempts int) SqliteOptionFunc {
	return func(sqliteOpts *sqlite.Options, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}

func WithSqliteConnectionTimeout(timeout time.Duration) SqliteOptionFunc {
	return func(sqliteOpts *sqlite.Options, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}
