package schema

type (
	ColumnType        string
	ReferentialAction string
)

const (
	BigIncrementsType ColumnType = "big_increments"
	IncrementsType    ColumnType = "increments"
	BigIntegerType    ColumnType = "big_integer"
	IntegerType       ColumnType = "integer"
	DecimalType       ColumnType = "decimal"
	StringType        ColumnType = "string"
	TextType          ColumnType = "text"
	BooleanType       ColumnType = "boolean"
	TimestampType     ColumnType = "timestamp"
)

const (
	NoAction ReferentialAction = ""
	Cascade  ReferentialAction = "CASCADE"
	SetNull  ReferentialAction = "SET NULL"
	Restrict ReferentialAction = "RESTRICT"
)

const (
	MaxDecimalPrecision = 65
	MaxDecimalScale     = 30

	DefaultStringLength = 255
	DefaultIDColumn     = "id"
)

// Column describes a single column of a table definition
type Column struct {
	Name          string
	Type          ColumnType
	Length        int
	Precision     int
	Scale         int
	Nullable      bool
	Unsigned      bool
	AutoIncrement bool
	PrimaryKey    bool
	Default       *string
}

// ForeignKey references a column of another table
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  ReferentialAction
	OnUpdate  ReferentialAction
}

// ConstraintName follows the <table>_<column>_foreign convention
func (fk ForeignKey) ConstraintName(table string) string {
	return table + "_" + fk.Column + "_foreign"
}

// ColumnDefinition allows to chain column modifiers after the column was added to a blueprint
type ColumnDefinition struct {
	col *Column
}

func (cd ColumnDefinition) Nullable() ColumnDefinition {
	cd.col.Nullable = true
	return cd
}

func (cd ColumnDefinition) Unsigned() ColumnDefinition {
	cd.col.Unsigned = true
	return cd
}

func (cd ColumnDefinition) Primary() ColumnDefinition {
	cd.col.PrimaryKey = true
	return cd
}

func (cd ColumnDefinition) Default(value string) ColumnDefinition {
	v := value
	cd.col.Default = &v
	return cd
}

// ForeignIDDefinition is returned for foreign id columns,
// Constrained turns the column into a foreign key. Copies of the definition
// share the same foreign key, it is only emitted once a referenced table is set
type ForeignIDDefinition struct {
	ColumnDefinition
	fk *ForeignKey
}

// Constrained references table(id), when table is omitted
// the name is guessed from the column: item_id -> items
func (fd ForeignIDDefinition) Constrained(table ...string) ForeignIDDefinition {
	refTable := guessTableFromColumn(fd.col.Name)
	if len(table) > 0 && table[0] != "" {
		refTable = table[0]
	}

	return fd.References(DefaultIDColumn).On(refTable)
}

func (fd ForeignIDDefinition) References(column string) ForeignIDDefinition {
	fd.fk.RefColumn = column
	return fd
}

func (fd ForeignIDDefinition) On(table string) ForeignIDDefinition {
	if fd.fk.RefColumn == "" {
		fd.fk.RefColumn = DefaultIDColumn
	}

	fd.fk.RefTable = table
	return fd
}

func (fd ForeignIDDefinition) OnDelete(action ReferentialAction) ForeignIDDefinition {
	fd.fk.OnDelete = action
	return fd
}

func (fd ForeignIDDefinition) OnUpdate(action ReferentialAction) ForeignIDDefinition {
	fd.fk.OnUpdate = action
	return fd
}

func (fd ForeignIDDefinition) CascadeOnDelete() ForeignIDDefinition {
	return fd.OnDelete(Cascade)
}

func (fd ForeignIDDefinition) NullOnDelete() ForeignIDDefinition {
	fd.col.Nullable = true
	return fd.OnDelete(SetNull)
}

func guessTableFromColumn(column string) string {
	const suffix = "_" + DefaultIDColumn
	if len(column) > len(suffix) && column[len(column)-len(suffix):] == suffix {
		return column[:len(column)-len(suffix)] + "s"
	}

	return column
}
