// Package mysql implements a MySQL-backed storage.Repository. Batches are
// written as multi-row INSERT statements, split so that no statement exceeds
// the placeholder limit of the protocol.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"healthetl/internal/ddl"
)

// maxPlaceholders is the prepared statement parameter limit of MySQL.
const maxPlaceholders = 65535

// Quote quotes a MySQL identifier with backticks.
func Quote(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// Dialect renders MySQL DDL. Primary key text columns need a bounded length.
var Dialect = ddl.Dialect{
	Name:  "mysql",
	Quote: Quote,
	Types: map[ddl.Type]string{
		ddl.Integer: "BIGINT",
		ddl.Float:   "DOUBLE",
		ddl.Text:    "VARCHAR(255)",
	},
}

// Repository is a database/sql pool bound to one target table.
type Repository struct {
	db    *sql.DB
	table string
}

// New wraps an open database.
func New(db *sql.DB, table string) *Repository { return &Repository{db: db, table: table} }

// Close closes the underlying database.
func (r *Repository) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// NewRepository parses dsn, connects and returns a Repository plus a close
// function.
func NewRepository(ctx context.Context, dsn, table string) (*Repository, func(), error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return New(db, table), func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows in one transaction using as few multi-row INSERT
// statements as the placeholder limit allows.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	perStmt := maxPlaceholders / len(columns)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}
	var total int64
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		query, args, err := r.insertSQL(columns, rows[start:end])
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: rows affected: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return total, nil
}

func (r *Repository) insertSQL(columns []string, rows [][]any) (string, []any, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = Quote(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", Dialect.QuoteFQN(r.table), strings.Join(quoted, ", "))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("mysql: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

// Exec executes one statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}
