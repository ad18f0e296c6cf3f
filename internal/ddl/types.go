package ddl

// Type is the logical type of a column, mapped to SQL by a Dialect.
type Type string

const (
	Integer Type = "integer"
	Float   Type = "float"
	Text    Type = "text"
)

// ColumnDef describes a single column.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Type: logical type, used when SQLType is empty
//   - SQLType: explicit SQL type overriding the dialect mapping
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Type       Type
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name (FQN, optionally "schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
