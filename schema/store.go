package schema

import (
	"context"

	"github.com/pkg/errors"
)

// Grammar compiles table definitions into dialect specific DDL
type Grammar interface {
	CompileCreate(t *Table) ([]string, error)
	CompileDropIfExists(table string) string
}

// Store is a handle to the persistent schema, every method returns
// classified errors (*SchemaConflictError, *ConstraintError, *StoreUnavailableError)
// whenever the underlying failure can be recognized
type Store interface {
	Exec(ctx context.Context, statement string) error
	HasTable(ctx context.Context, table string) (bool, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
	HasForeignKey(ctx context.Context, table, column, refTable string) (bool, error)
	Grammar() Grammar
}

// Create applies the table definition to the store.
// All checks run before the first statement so a failed check leaves the store untouched.
func Create(ctx context.Context, s Store, t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	exists, err := s.HasTable(ctx, t.Name)
	if err != nil {
		return errors.Wrapf(err, "could not check if table [%s] exists", t.Name)
	}

	if exists {
		return &SchemaConflictError{Table: t.Name}
	}

	for _, fk := range t.ForeignKeys {
		if err := checkReference(ctx, s, t, fk); err != nil {
			return err
		}
	}

	statements, err := s.Grammar().CompileCreate(t)
	if err != nil {
		return errors.Wrapf(err, "could not compile table [%s]", t.Name)
	}

	for _, stmt := range statements {
		if err := s.Exec(ctx, stmt); err != nil {
			return attach(err, t.Name)
		}
	}

	return nil
}

// DropIfExists removes the table, a missing table is not an error
func DropIfExists(ctx context.Context, s Store, table string) error {
	if table == "" {
		return errors.Wrap(ErrInvalidTable, "table name must be specified")
	}

	exists, err := s.HasTable(ctx, table)
	if err != nil {
		return errors.Wrapf(err, "could not check if table [%s] exists", table)
	}

	if !exists {
		return nil
	}

	if err := s.Exec(ctx, s.Grammar().CompileDropIfExists(table)); err != nil {
		return attach(err, table)
	}

	return nil
}

func checkReference(ctx context.Context, s Store, t *Table, fk ForeignKey) error {
	// self references are satisfied by the table being created
	if fk.RefTable == t.Name {
		if _, ok := t.Column(fk.RefColumn); !ok {
			return &ConstraintError{Table: t.Name, Column: fk.Column, RefTable: fk.RefTable, RefColumn: fk.RefColumn}
		}
		return nil
	}

	refExists, err := s.HasTable(ctx, fk.RefTable)
	if err != nil {
		return errors.Wrapf(err, "could not check referenced table [%s]", fk.RefTable)
	}

	if !refExists {
		return &ConstraintError{Table: t.Name, Column: fk.Column, RefTable: fk.RefTable}
	}

	colExists, err := s.HasColumn(ctx, fk.RefTable, fk.RefColumn)
	if err != nil {
		return errors.Wrapf(err, "could not check referenced column [%s.%s]", fk.RefTable, fk.RefColumn)
	}

	if !colExists {
		return &ConstraintError{Table: t.Name, Column: fk.Column, RefTable: fk.RefTable, RefColumn: fk.RefColumn}
	}

	return nil
}
