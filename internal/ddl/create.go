// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements for a Dialect.
//
// Backends (internal/storage/<kind>) declare their Dialect: identifier
// quoting, the SQL type for each logical Type, and how the statement is made
// idempotent.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect describes the SQL flavor of one backend.
type Dialect struct {
	Name string
	// Quote quotes a single identifier segment.
	Quote func(string) string
	// Types maps logical types to SQL types. Missing entries fall back to
	// the Text mapping.
	Types map[Type]string
	// Guard wraps the CREATE TABLE statement so that it is a no-op when the
	// table exists. Nil means "CREATE TABLE IF NOT EXISTS".
	Guard func(quotedFQN, rawFQN, create string) string
}

// QuoteFQN quotes each dotted segment of fqn.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

func (d Dialect) sqlType(c ColumnDef) string {
	if t := strings.TrimSpace(c.SQLType); t != "" {
		return t
	}
	if t, ok := d.Types[c.Type]; ok {
		return t
	}
	return d.Types[Text]
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk1", "pk2")
//	);
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := d.sqlType(c)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: no SQL type for column %s", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := d.QuoteFQN(fqn)
	body := fmt.Sprintf("(\n  %s\n)", strings.Join(cols, ",\n  "))
	if d.Guard == nil {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s;", quoted, body), nil
	}
	return d.Guard(quoted, fqn, fmt.Sprintf("CREATE TABLE %s %s", quoted, body)), nil
}

// DoubleQuote is the ANSI identifier quoting used by SQLite and Postgres.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
