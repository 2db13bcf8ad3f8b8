package mysql

import (
	"fmt"
	"net"
	"strings"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/database/sqlgateway"
	"github.com/denismitr/blueprint/migration"
	"github.com/denismitr/blueprint/schema"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const DefaultCharset = "utf8mb4"

type Dialect struct {
	sqlgateway.TableCompiler
	migrationsTable, charset string
}

var _ sqlgateway.Dialect = (*Dialect)(nil)

func NewDialect(migrationsTable, charset string) *Dialect {
	if charset == "" {
		charset = DefaultCharset
	}

	return &Dialect{
		migrationsTable: migrationsTable,
		charset:         charset,
		TableCompiler: sqlgateway.TableCompiler{
			Quote:     Quote,
			Type:      columnType,
			Modifiers: modifiers,
			Suffix:    " ENGINE=InnoDB DEFAULT CHARSET=" + charset,
		},
	}
}

// Quote wraps an identifier in backticks
func Quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (d *Dialect) InitQuery() string {
	const createSQL = "CREATE TABLE IF NOT EXISTS %s (" +
		"`version` BIGINT UNSIGNED NOT NULL, " +
		"`batch` INT UNSIGNED NOT NULL, " +
		"`name` VARCHAR(255) NOT NULL, " +
		"`migrated_at` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
		"PRIMARY KEY (`version`)" +
		") ENGINE=InnoDB DEFAULT CHARSET=%s"

	return fmt.Sprintf(createSQL, Quote(d.migrationsTable), d.charset)
}

func (d *Dialect) InsertQuery(v migration.Version) (string, []interface{}, error) {
	if err := sqlgateway.ValidateVersion(v); err != nil {
		return "", nil, err
	}

	const insertSQL = "INSERT INTO %s (`version`, `batch`, `name`, `migrated_at`) VALUES (?, ?, ?, ?)"

	return fmt.Sprintf(insertSQL, Quote(d.migrationsTable)), []interface{}{
		uint64(v.Order),
		uint64(v.Batch),
		v.Name,
		v.MigratedAt,
	}, nil
}

func (d *Dialect) ReadVersionsQuery(f database.ReadVersionsFilter) (string, error) {
	return sqlgateway.ReadVersionsQuery(
		"SELECT `version`, `batch`, `name`, `migrated_at` FROM "+Quote(d.migrationsTable),
		"`version`",
		f,
	)
}

func (d *Dialect) RemoveQuery(v migration.Version) (string, []interface{}, error) {
	if v.Order == 0 {
		return "", nil, errors.Wrap(migration.ErrMigrationIsMalformed, "version order must be greater than 0")
	}

	const removeSQL = "DELETE FROM %s WHERE `version` = ?"
	return fmt.Sprintf(removeSQL, Quote(d.migrationsTable)), []interface{}{uint64(v.Order)}, nil
}

func (d *Dialect) DropQuery() string {
	return "DROP TABLE IF EXISTS " + Quote(d.migrationsTable)
}

func (d *Dialect) ShowTablesQuery() string {
	return "SHOW TABLES"
}

func (d *Dialect) HasTableQuery(table string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM information_schema.tables " +
		"WHERE table_schema = DATABASE() AND table_name = ?", []interface{}{table}
}

func (d *Dialect) HasColumnQuery(table, column string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM information_schema.columns " +
		"WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?", []interface{}{table, column}
}

func (d *Dialect) HasForeignKeyQuery(table, column, refTable string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM information_schema.key_column_usage " +
			"WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ? AND referenced_table_name = ?",
		[]interface{}{table, column, refTable}
}

// ClassifyError maps MySQL server error numbers onto schema errors
func (d *Dialect) ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1050:
			return &schema.SchemaConflictError{Err: err}
		case 1215, 1216, 1452, 1824:
			return &schema.ConstraintError{Err: err}
		case 1044, 1045, 1142, 2002, 2003, 2006, 2013:
			return &schema.StoreUnavailableError{Op: op, Err: err}
		}

		return err
	}

	if errors.Is(err, mysql.ErrInvalidConn) {
		return &schema.StoreUnavailableError{Op: op, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &schema.StoreUnavailableError{Op: op, Err: err}
	}

	return sqlgateway.ClassifyCommonError(op, err)
}

func columnType(c schema.Column) (string, error) {
	var typ string

	switch c.Type {
	case schema.BigIncrementsType, schema.BigIntegerType:
		typ = "BIGINT"
	case schema.IncrementsType, schema.IntegerType:
		typ = "INT"
	case schema.DecimalType:
		typ = fmt.Sprintf("DECIMAL(%d, %d)", c.Precision, c.Scale)
	case schema.StringType:
		return fmt.Sprintf("VARCHAR(%d)", c.Length), nil
	case schema.TextType:
		return "TEXT", nil
	case schema.BooleanType:
		return "TINYINT(1)", nil
	case schema.TimestampType:
		return "TIMESTAMP", nil
	default:
		return "", sqlgateway.UnsupportedColumn(c)
	}

	if c.Unsigned {
		typ += " UNSIGNED"
	}

	return typ, nil
}

func modifiers(c schema.Column) string {
	if c.AutoIncrement {
		return "AUTO_INCREMENT"
	}

	return ""
}
