package schema

import (
	"fmt"

	"github.com/pkg/errors"
)

// SchemaConflictError is returned when the table to be created already exists
type SchemaConflictError struct {
	Table string
	Err   error
}

func (e *SchemaConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("table [%s] already exists: %s", e.Table, e.Err.Error())
	}

	return fmt.Sprintf("table [%s] already exists", e.Table)
}

func (e *SchemaConflictError) Unwrap() error {
	return e.Err
}

// ConstraintError is returned when a dependency of the definition is missing,
// e.g. the table referenced by a foreign key
type ConstraintError struct {
	Table     string
	Column    string
	RefTable  string
	RefColumn string
	Err       error
}

func (e *ConstraintError) Error() string {
	var msg string
	switch {
	case e.RefTable != "" && e.RefColumn != "":
		msg = fmt.Sprintf(
			"foreign key [%s.%s] references missing [%s.%s]",
			e.Table, e.Column, e.RefTable, e.RefColumn,
		)
	case e.RefTable != "":
		msg = fmt.Sprintf("table [%s] references missing table [%s]", e.Table, e.RefTable)
	default:
		msg = fmt.Sprintf("constraint violated on table [%s]", e.Table)
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}

	return msg
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// StoreUnavailableError wraps connectivity and permission failures of the store
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("schema store unavailable: %v", e.Err)
	}

	return fmt.Sprintf("schema store unavailable during [%s]: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func IsSchemaConflict(err error) bool {
	var target *SchemaConflictError
	return errors.As(err, &target)
}

func IsConstraintViolation(err error) bool {
	var target *ConstraintError
	return errors.As(err, &target)
}

func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}

// attach fills in the table name of classified store errors
// that were raised by a statement rather than a check
func attach(err error, table string) error {
	var conflict *SchemaConflictError
	if errors.As(err, &conflict) && conflict.Table == "" {
		conflict.Table = table
	}

	var constraint *ConstraintError
	if errors.As(err, &constraint) && constraint.Table == "" {
		constraint.Table = table
	}

	return err
}
