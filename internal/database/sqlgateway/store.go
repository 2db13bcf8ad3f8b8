package sqlgateway

import (
	"context"
	"database/sql"

	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/schema"
)

type QueryExecutor interface {
	CtxExecutor
	CtxQuerier
}

// Store is the schema.Store bound to a transaction or a connection
type Store struct {
	ex      QueryExecutor
	dialect Dialect
	lg      logger.Logger
}

var _ schema.Store = (*Store)(nil)

func NewStore(ex QueryExecutor, dialect Dialect, lg logger.Logger) *Store {
	if lg == nil {
		lg = &logger.NullLogger{}
	}

	return &Store{ex: ex, dialect: dialect, lg: lg}
}

func (s *Store) Exec(ctx context.Context, statement string) error {
	s.lg.SQL(statement)

	if _, err := s.ex.ExecContext(ctx, statement); err != nil {
		return s.dialect.ClassifyError("exec", err)
	}

	return nil
}

func (s *Store) HasTable(ctx context.Context, table string) (bool, error) {
	q, args := s.dialect.HasTableQuery(table)
	return s.exists(ctx, "has table", q, args)
}

func (s *Store) HasColumn(ctx context.Context, table, column string) (bool, error) {
	q, args := s.dialect.HasColumnQuery(table, column)
	return s.exists(ctx, "has column", q, args)
}

func (s *Store) HasForeignKey(ctx context.Context, table, column, refTable string) (bool, error) {
	q, args := s.dialect.HasForeignKeyQuery(table, column, refTable)
	return s.exists(ctx, "has foreign key", q, args)
}

func (s *Store) Grammar() schema.Grammar {
	return s.dialect
}

func (s *Store) exists(ctx context.Context, op, query string, args []interface{}) (bool, error) {
	s.lg.SQL(query, args...)

	var count int
	if err := s.ex.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}

		return false, s.dialect.ClassifyError(op, err)
	}

	return count > 0, nil
}
