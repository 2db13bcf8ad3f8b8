package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/database/sqlgateway"
	"github.com/denismitr/blueprint/migration"
	"github.com/denismitr/blueprint/schema"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type Options struct {
	database.CommonOptions
	// DisableForeignKeys skips enabling foreign key enforcement on the connection
	DisableForeignKeys bool
}

type Dialect struct {
	sqlgateway.TableCompiler
	migrationsTable string
}

var _ sqlgateway.Dialect = (*Dialect)(nil)

func NewDialect(migrationsTable string) *Dialect {
	return &Dialect{
		migrationsTable: migrationsTable,
		TableCompiler: sqlgateway.TableCompiler{
			Quote:                  Quote,
			Type:                   columnType,
			Modifiers:              modifiers,
			InlineAutoIncrementKey: true,
		},
	}
}

// Quote wraps an identifier in double quotes
func Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// EnableForeignKeys is a connection initializer, SQLite does not enforce
// foreign keys unless asked to on every connection
func EnableForeignKeys(ctx context.Context, conn *sql.Conn) error {
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return errors.Wrap(err, "could not enable sqlite foreign keys")
	}

	return nil
}

func (d *Dialect) InitQuery() string {
	const createSQL = `CREATE TABLE IF NOT EXISTS %s (
	"version" BIGINT PRIMARY KEY,
	"batch" BIGINT NOT NULL,
	"name" VARCHAR(255) NOT NULL,
	"migrated_at" TIMESTAMP NOT NULL
)`

	return fmt.Sprintf(createSQL, Quote(d.migrationsTable))
}

func (d *Dialect) InsertQuery(v migration.Version) (string, []interface{}, error) {
	if err := sqlgateway.ValidateVersion(v); err != nil {
		return "", nil, err
	}

	const insertSQL = `INSERT INTO %s ("version", "batch", "name", "migrated_at") VALUES (?, ?, ?, ?)`
	q := fmt.Sprintf(insertSQL, Quote(d.migrationsTable))

	return q, []interface{}{uint64(v.Order), uint64(v.Batch), v.Name, v.MigratedAt}, nil
}

func (d *Dialect) RemoveQuery(v migration.Version) (string, []interface{}, error) {
	if v.Order == 0 {
		return "", nil, errors.Wrap(migration.ErrMigrationIsMalformed, "version order must be greater than 0")
	}

	const removeSQL = `DELETE FROM %s WHERE "version" = ?`
	return fmt.Sprintf(removeSQL, Quote(d.migrationsTable)), []interface{}{uint64(v.Order)}, nil
}

func (d *Dialect) DropQuery() string {
	return "DROP TABLE IF EXISTS " + Quote(d.migrationsTable)
}

func (d *Dialect) ShowTablesQuery() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
}

func (d *Dialect) ReadVersionsQuery(f database.ReadVersionsFilter) (string, error) {
	return sqlgateway.ReadVersionsQuery(
		`SELECT "version", "batch", "name", "migrated_at" FROM `+Quote(d.migrationsTable),
		Quote("version"),
		f,
	)
}

func (d *Dialect) HasTableQuery(table string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", []interface{}{table}
}

func (d *Dialect) HasColumnQuery(table, column string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", []interface{}{table, column}
}

func (d *Dialect) HasForeignKeyQuery(table, column, refTable string) (string, []interface{}) {
	return `SELECT COUNT(*) FROM pragma_foreign_key_list(?) WHERE "from" = ? AND "table" = ?`,
		[]interface{}{table, column, refTable}
}

func (d *Dialect) ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return sqlgateway.ClassifyCommonError(op, err)
	}

	switch sqliteErr.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrPerm, sqlite3.ErrAuth,
		sqlite3.ErrReadonly, sqlite3.ErrNotADB, sqlite3.ErrBusy, sqlite3.ErrLocked:
		return &schema.StoreUnavailableError{Op: op, Err: err}
	case sqlite3.ErrConstraint:
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return &schema.ConstraintError{Err: err}
		}
	case sqlite3.ErrError:
		msg := strings.ToLower(sqliteErr.Error())
		if strings.Contains(msg, "already exists") {
			return &schema.SchemaConflictError{Err: err}
		}

		if strings.Contains(msg, "no such table") {
			return &schema.ConstraintError{Err: err}
		}
	}

	return err
}

func columnType(c schema.Column) (string, error) {
	switch c.Type {
	case schema.BigIncrementsType, schema.IncrementsType, schema.BigIntegerType, schema.IntegerType:
		return "INTEGER", nil
	case schema.DecimalType:
		return fmt.Sprintf("DECIMAL(%d, %d)", c.Precision, c.Scale), nil
	case schema.StringType:
		return fmt.Sprintf("VARCHAR(%d)", c.Length), nil
	case schema.TextType:
		return "TEXT", nil
	case schema.BooleanType:
		return "TINYINT(1)", nil
	case schema.TimestampType:
		return "DATETIME", nil
	default:
		return "", sqlgateway.UnsupportedColumn(c)
	}
}

// modifiers declares an auto increment column as the rowid alias,
// no AUTOINCREMENT keyword so that no sqlite_sequence table is created
func modifiers(c schema.Column) string {
	if c.AutoIncrement {
		return "PRIMARY KEY"
	}

	return ""
}
