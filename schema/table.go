package schema

import (
	"github.com/pkg/errors"
)

var ErrInvalidTable = errors.New("invalid table definition")

// Table is the declarative shape of a table: its name, ordered columns
// and the foreign keys referencing other tables
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Blueprint collects columns and constraints for a table definition
type Blueprint struct {
	table       string
	columns     []*Column
	foreignKeys []*ForeignKey
}

// Define builds a table definition with the blueprint callback
//
//	schema.Define("stocks", func(t *schema.Blueprint) {
//		t.ID()
//		t.ForeignID("item_id").Constrained("items").CascadeOnDelete()
//		t.Decimal("total_amount", 12, 2)
//		t.Timestamps()
//	})
func Define(name string, build func(t *Blueprint)) *Table {
	bp := &Blueprint{table: name}
	if build != nil {
		build(bp)
	}

	return bp.Table()
}

func (bp *Blueprint) Table() *Table {
	t := &Table{Name: bp.table}

	for _, c := range bp.columns {
		t.Columns = append(t.Columns, *c)
	}

	for _, fk := range bp.foreignKeys {
		if fk.RefTable == "" {
			continue
		}

		t.ForeignKeys = append(t.ForeignKeys, *fk)
	}

	return t
}

func (bp *Blueprint) add(c *Column) ColumnDefinition {
	bp.columns = append(bp.columns, c)
	return ColumnDefinition{col: c}
}

// ID adds an auto incrementing unsigned big integer primary key named id
func (bp *Blueprint) ID(name ...string) ColumnDefinition {
	column := DefaultIDColumn
	if len(name) > 0 && name[0] != "" {
		column = name[0]
	}

	return bp.BigIncrements(column)
}

func (bp *Blueprint) BigIncrements(name string) ColumnDefinition {
	return bp.add(&Column{
		Name:          name,
		Type:          BigIncrementsType,
		Unsigned:      true,
		AutoIncrement: true,
		PrimaryKey:    true,
	})
}

func (bp *Blueprint) Increments(name string) ColumnDefinition {
	return bp.add(&Column{
		Name:          name,
		Type:          IncrementsType,
		Unsigned:      true,
		AutoIncrement: true,
		PrimaryKey:    true,
	})
}

// ForeignID adds an unsigned big integer column ready to be constrained
func (bp *Blueprint) ForeignID(name string) ForeignIDDefinition {
	cd := bp.UnsignedBigInteger(name)
	fk := &ForeignKey{Column: name}
	bp.foreignKeys = append(bp.foreignKeys, fk)

	return ForeignIDDefinition{ColumnDefinition: cd, fk: fk}
}

func (bp *Blueprint) BigInteger(name string) ColumnDefinition {
	return bp.add(&Column{Name: name, Type: BigIntegerType})
}

func (bp *Blueprint) UnsignedBigInteger(name string) ColumnDefinition {
	return bp.add(&Column{Name: name, Type: BigIntegerType, Unsigned: true})
}

func (bp *Blueprint) Integer(name string) ColumnDefinition {
	return bp.add(&Column{Name: name, Type: IntegerType})
}

// Decimal adds a fixed precision column, precision and scale are kept as declared
func (bp *Blueprint) Decimal(name string, precision, scale int) ColumnDefinition {
	return bp.add(&Column{Name: name, Type: DecimalType, Precision: precision, Scale: scale})
}

func (bp *Blueprint) String(name string, length ...int) ColumnDefinition {
	l := DefaultStringLength
	if len(length) > 0 {
		l = length[0]
	}

	return bp.add(&Column{Name: name, Type: StringType, Length: l})
}

func (bp *Blueprint) Text(name string) ColumnDefinition {
	return bp.add(&Column{Name: name, Type: TextType})
}

func (bp *Blueprint) Boolean(name string) ColumnDefinition {
	return bp.add(&Column{Name: name, Type: BooleanType})
}

func (bp *Blueprint) Timestamp(name string) ColumnDefinition {
	return bp.add(&Column{Name: name, Type: TimestampType})
}

// Timestamps adds nullable created_at and updated_at columns
func (bp *Blueprint) Timestamps() {
	bp.Timestamp("created_at").Nullable()
	bp.Timestamp("updated_at").Nullable()
}

// Column finds a column by name
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return Column{}, false
}

func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// PrimaryKeys returns names of the columns marked as primary key
func (t *Table) PrimaryKeys() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Validate checks the invariants of the definition before any DDL is compiled
func (t *Table) Validate() error {
	if t.Name == "" {
		return errors.Wrap(ErrInvalidTable, "table name must be specified")
	}

	if len(t.Columns) == 0 {
		return errors.Wrapf(ErrInvalidTable, "table [%s] has no columns", t.Name)
	}

	seen := make(map[string]struct{}, len(t.Columns))
	autoIncrements := 0

	for _, c := range t.Columns {
		if c.Name == "" {
			return errors.Wrapf(ErrInvalidTable, "table [%s] has a column without a name", t.Name)
		}

		if _, ok := seen[c.Name]; ok {
			return errors.Wrapf(ErrInvalidTable, "column [%s] is declared more than once in table [%s]", c.Name, t.Name)
		}
		seen[c.Name] = struct{}{}

		if c.AutoIncrement {
			autoIncrements++
		}

		if err := validateColumn(t.Name, c); err != nil {
			return err
		}
	}

	if autoIncrements > 1 {
		return errors.Wrapf(ErrInvalidTable, "table [%s] can have only one auto increment column", t.Name)
	}

	for _, fk := range t.ForeignKeys {
		if _, ok := seen[fk.Column]; !ok {
			return errors.Wrapf(ErrInvalidTable, "foreign key column [%s] is not declared in table [%s]", fk.Column, t.Name)
		}

		if fk.RefTable == "" || fk.RefColumn == "" {
			return errors.Wrapf(ErrInvalidTable, "foreign key [%s] must reference a table and a column", fk.ConstraintName(t.Name))
		}

		if fk.OnDelete == SetNull {
			if c, _ := t.Column(fk.Column); !c.Nullable {
				return errors.Wrapf(ErrInvalidTable, "column [%s] must be nullable to be set null on delete", fk.Column)
			}
		}
	}

	return nil
}

func validateColumn(table string, c Column) error {
	switch c.Type {
	case DecimalType:
		if c.Precision < 1 || c.Precision > MaxDecimalPrecision {
			return errors.Wrapf(
				ErrInvalidTable,
				"decimal column [%s.%s] precision must be between 1 and %d, got %d",
				table, c.Name, MaxDecimalPrecision, c.Precision,
			)
		}

		if c.Scale < 0 || c.Scale > c.Precision || c.Scale > MaxDecimalScale {
			return errors.Wrapf(
				ErrInvalidTable,
				"decimal column [%s.%s] scale must be between 0 and %d, got %d",
				table, c.Name, min(c.Precision, MaxDecimalScale), c.Scale,
			)
		}
	case StringType:
		if c.Length < 1 {
			return errors.Wrapf(ErrInvalidTable, "string column [%s.%s] must have a positive length", table, c.Name)
		}
	case BigIncrementsType, IncrementsType, BigIntegerType, IntegerType, TextType, BooleanType, TimestampType:
	default:
		return errors.Wrapf(ErrInvalidTable, "column [%s.%s] has unsupported type [%s]", table, c.Name, c.Type)
	}

	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
