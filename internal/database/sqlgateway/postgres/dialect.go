package postgres

import (
	"fmt"
	"net"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/database/sqlgateway"
	"github.com/denismitr/blueprint/migration"
	"github.com/denismitr/blueprint/schema"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type Dialect struct {
	sqlgateway.TableCompiler
	migrationsTable string
}

var _ sqlgateway.Dialect = (*Dialect)(nil)

func NewDialect(migrationsTable string) *Dialect {
	return &Dialect{
		migrationsTable: migrationsTable,
		TableCompiler: sqlgateway.TableCompiler{
			Quote: pq.QuoteIdentifier,
			Type:  columnType,
		},
	}
}

func (d *Dialect) InitQuery() string {
	const createSQL = `CREATE TABLE IF NOT EXISTS %s (
	"version" BIGINT PRIMARY KEY,
	"batch" INTEGER NOT NULL,
	"name" VARCHAR(255) NOT NULL,
	"migrated_at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	return fmt.Sprintf(createSQL, pq.QuoteIdentifier(d.migrationsTable))
}

func (d *Dialect) InsertQuery(v migration.Version) (string, []interface{}, error) {
	if err := sqlgateway.ValidateVersion(v); err != nil {
		return "", nil, err
	}

	const insertSQL = `INSERT INTO %s ("version", "batch", "name", "migrated_at") VALUES ($1, $2, $3, $4)`

	args := []interface{}{
		int64(v.Order),
		int64(v.Batch),
		v.Name,
		v.MigratedAt,
	}

	return fmt.Sprintf(insertSQL, pq.QuoteIdentifier(d.migrationsTable)), args, nil
}

func (d *Dialect) ReadVersionsQuery(f database.ReadVersionsFilter) (string, error) {
	return sqlgateway.ReadVersionsQuery(
		`SELECT "version", "batch", "name", "migrated_at" FROM `+pq.QuoteIdentifier(d.migrationsTable),
		`"version"`,
		f,
	)
}

func (d *Dialect) RemoveQuery(v migration.Version) (string, []interface{}, error) {
	if v.Order == 0 {
		return "", nil, errors.Wrap(migration.ErrMigrationIsMalformed, "version order must be greater than 0")
	}

	const removeSQL = `DELETE FROM %s WHERE "version" = $1`
	return fmt.Sprintf(removeSQL, pq.QuoteIdentifier(d.migrationsTable)), []interface{}{int64(v.Order)}, nil
}

func (d *Dialect) DropQuery() string {
	return "DROP TABLE IF EXISTS " + pq.QuoteIdentifier(d.migrationsTable)
}

func (d *Dialect) ShowTablesQuery() string {
	return "SELECT tablename FROM pg_catalog.pg_tables " +
		"WHERE schemaname != 'pg_catalog' AND schemaname != 'information_schema' ORDER BY tablename"
}

func (d *Dialect) HasTableQuery(table string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM information_schema.tables " +
		"WHERE table_schema = current_schema() AND table_name = $1", []interface{}{table}
}

func (d *Dialect) HasColumnQuery(table, column string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM information_schema.columns " +
		"WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2", []interface{}{table, column}
}

func (d *Dialect) HasForeignKeyQuery(table, column, refTable string) (string, []interface{}) {
	const q = "SELECT COUNT(*) FROM information_schema.table_constraints tc " +
		"JOIN information_schema.key_column_usage kcu " +
		"ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema " +
		"JOIN information_schema.constraint_column_usage ccu " +
		"ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema " +
		"WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() " +
		"AND tc.table_name = $1 AND kcu.column_name = $2 AND ccu.table_name = $3"

	return q, []interface{}{table, column, refTable}
}

// ClassifyError maps PostgreSQL SQLSTATE codes onto schema errors
func (d *Dialect) ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P07":
			return &schema.SchemaConflictError{Err: err}
		case "42P01", "23503", "42830":
			return &schema.ConstraintError{Err: err}
		case "42501":
			return &schema.StoreUnavailableError{Op: op, Err: err}
		}

		switch pqErr.Code.Class() {
		case "08", "28":
			return &schema.StoreUnavailableError{Op: op, Err: err}
		}

		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &schema.StoreUnavailableError{Op: op, Err: err}
	}

	return sqlgateway.ClassifyCommonError(op, err)
}

func columnType(c schema.Column) (string, error) {
	switch c.Type {
	case schema.BigIncrementsType:
		return "BIGSERIAL", nil
	case schema.IncrementsType:
		return "SERIAL", nil
	case schema.BigIntegerType:
		return "BIGINT", nil
	case schema.IntegerType:
		return "INTEGER", nil
	case schema.DecimalType:
		return fmt.Sprintf("DECIMAL(%d, %d)", c.Precision, c.Scale), nil
	case schema.StringType:
		return fmt.Sprintf("VARCHAR(%d)", c.Length), nil
	case schema.TextType:
		return "TEXT", nil
	case schema.BooleanType:
		return "BOOLEAN", nil
	case schema.TimestampType:
		return "TIMESTAMP(0) WITHOUT TIME ZONE", nil
	default:
		return "", sqlgateway.UnsupportedColumn(c)
	}
}
