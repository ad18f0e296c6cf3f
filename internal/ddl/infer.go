package ddl

import (
	"healthetl/internal/table"
)

// FromTable infers a table definition from the cells of t. A column holding
// only int64 values is Integer, any other numeric mix is Float, everything
// else is Text. Columns listed in key become a NOT NULL primary key; the rest
// are nullable.
func FromTable(fqn string, t *table.Table, key []string) TableDef {
	isKey := make(map[string]bool, len(key))
	for _, k := range key {
		isKey[k] = true
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(t.Columns))}
	for _, c := range t.Columns {
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c,
			Type:       inferColumn(t, c),
			Nullable:   !isKey[c],
			PrimaryKey: isKey[c],
		})
	}
	return def
}

func inferColumn(t *table.Table, col string) Type {
	var sawInt, sawFloat, sawOther bool
	for _, r := range t.Rows {
		switch v := r[col].(type) {
		case nil:
		case int64, int, int32:
			sawInt = true
		default:
			if _, ok := table.Float(v); ok {
				sawFloat = true
			} else {
				sawOther = true
			}
		}
	}
	switch {
	case sawOther:
		return Text
	case sawFloat:
		return Float
	case sawInt:
		return Integer
	}
	return Text
}
