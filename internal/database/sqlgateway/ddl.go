package sqlgateway

import (
	"strings"

	"github.com/denismitr/blueprint/schema"
	"github.com/pkg/errors"
)

var ErrUnsupportedColumn = errors.New("unsupported column definition")

// TableCompiler renders a schema.Table into a single CREATE TABLE statement,
// dialects supply identifier quoting, type mapping and column modifiers
type TableCompiler struct {
	Quote func(identifier string) string
	Type  func(c schema.Column) (string, error)

	// Modifiers returns what goes after the nullability of the column, e.g. AUTO_INCREMENT
	Modifiers func(c schema.Column) string

	// InlineAutoIncrementKey means the auto increment column declares the primary key itself
	InlineAutoIncrementKey bool

	// Suffix is appended after the closing parenthesis, e.g. table options
	Suffix string
}

func (tc TableCompiler) CompileCreate(t *schema.Table) ([]string, error) {
	var b strings.Builder

	b.WriteString("CREATE TABLE ")
	b.WriteString(tc.Quote(t.Name))
	b.WriteString(" (")

	var definitions []string
	for _, c := range t.Columns {
		def, err := tc.column(c)
		if err != nil {
			return nil, errors.Wrapf(err, "table [%s]", t.Name)
		}
		definitions = append(definitions, def)
	}

	if pk := tc.primaryKey(t); pk != "" {
		definitions = append(definitions, pk)
	}

	for _, fk := range t.ForeignKeys {
		definitions = append(definitions, tc.foreignKey(t.Name, fk))
	}

	b.WriteString(strings.Join(definitions, ", "))
	b.WriteString(")")
	b.WriteString(tc.Suffix)

	return []string{b.String()}, nil
}

func (tc TableCompiler) CompileDropIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + tc.Quote(table)
}

func (tc TableCompiler) column(c schema.Column) (string, error) {
	typ, err := tc.Type(c)
	if err != nil {
		return "", err
	}

	parts := []string{tc.Quote(c.Name), typ}

	if c.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}

	if c.Default != nil {
		parts = append(parts, "DEFAULT "+QuoteLiteral(*c.Default))
	}

	if tc.Modifiers != nil {
		if m := tc.Modifiers(c); m != "" {
			parts = append(parts, m)
		}
	}

	return strings.Join(parts, " "), nil
}

func (tc TableCompiler) primaryKey(t *schema.Table) string {
	keys := t.PrimaryKeys()
	if len(keys) == 0 {
		return ""
	}

	if tc.InlineAutoIncrementKey && len(keys) == 1 {
		if c, _ := t.Column(keys[0]); c.AutoIncrement {
			return ""
		}
	}

	quoted := make([]string, 0, len(keys))
	for _, k := range keys {
		quoted = append(quoted, tc.Quote(k))
	}

	return "PRIMARY KEY (" + strings.Join(quoted, ", ") + ")"
}

func (tc TableCompiler) foreignKey(table string, fk schema.ForeignKey) string {
	var b strings.Builder

	b.WriteString("CONSTRAINT ")
	b.WriteString(tc.Quote(fk.ConstraintName(table)))
	b.WriteString(" FOREIGN KEY (")
	b.WriteString(tc.Quote(fk.Column))
	b.WriteString(") REFERENCES ")
	b.WriteString(tc.Quote(fk.RefTable))
	b.WriteString(" (")
	b.WriteString(tc.Quote(fk.RefColumn))
	b.WriteString(")")

	if fk.OnDelete != schema.NoAction {
		b.WriteString(" ON DELETE ")
		b.WriteString(string(fk.OnDelete))
	}

	if fk.OnUpdate != schema.NoAction {
		b.WriteString(" ON UPDATE ")
		b.WriteString(string(fk.OnUpdate))
	}

	return b.String()
}

// QuoteLiteral renders a string literal with single quotes doubled
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func UnsupportedColumn(c schema.Column) error {
	return errors.Wrapf(ErrUnsupportedColumn, "column [%s] of type [%s]", c.Name, c.Type)
}
