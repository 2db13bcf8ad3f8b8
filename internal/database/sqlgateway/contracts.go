package sqlgateway

import (
	"context"
	"database/sql"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/migration"
	"github.com/denismitr/blueprint/schema"
)

type CtxExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type CtxRowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type CtxQuerier interface {
	CtxRowQuerier
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// LockExecutor is the connection a lock is taken and released on, *sql.Conn satisfies it
type LockExecutor interface {
	CtxExecutor
	CtxRowQuerier
}

type Locker interface {
	Lock(ctx context.Context, ex LockExecutor) error
	Unlock(ctx context.Context, ex LockExecutor) error
}

// StateManager builds queries for the migrations table
type StateManager interface {
	InitQuery() string
	InsertQuery(v migration.Version) (string, []interface{}, error)
	RemoveQuery(v migration.Version) (string, []interface{}, error)
	ReadVersionsQuery(f database.ReadVersionsFilter) (string, error)
	DropQuery() string
	ShowTablesQuery() string
}

// Inspector builds queries answering questions about the current schema,
// every query selects a single count
type Inspector interface {
	HasTableQuery(table string) (string, []interface{})
	HasColumnQuery(table, column string) (string, []interface{})
	HasForeignKeyQuery(table, column, refTable string) (string, []interface{})
}

// Dialect is everything the gateway needs to know about a particular database
type Dialect interface {
	StateManager
	Inspector
	schema.Grammar

	// ClassifyError converts driver errors into *schema.SchemaConflictError,
	// *schema.ConstraintError or *schema.StoreUnavailableError when recognized
	ClassifyError(op string, err error) error
}
