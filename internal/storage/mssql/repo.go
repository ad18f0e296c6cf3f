// Package mssql implements a SQL Server-backed storage.Repository. Batches are
// loaded with the driver's bulk copy (INSERT BULK) inside a transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"healthetl/internal/ddl"
)

// Quote quotes a SQL Server identifier with brackets.
func Quote(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// Dialect renders SQL Server DDL. SQL Server has no CREATE TABLE IF NOT
// EXISTS, so the statement is guarded with OBJECT_ID.
var Dialect = ddl.Dialect{
	Name:  "mssql",
	Quote: Quote,
	Types: map[ddl.Type]string{
		ddl.Integer: "BIGINT",
		ddl.Float:   "FLOAT",
		ddl.Text:    "NVARCHAR(400)",
	},
	Guard: func(quoted, raw, create string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s;", strings.ReplaceAll(raw, "'", "''"), create)
	},
}

// Repository is a database/sql pool bound to one target table.
type Repository struct {
	db    *sql.DB
	table string
}

// NewRepository validates dsn, connects and returns a Repository plus a close
// function.
func NewRepository(ctx context.Context, dsn, table string) (*Repository, func(), error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, table: table}, func() { _ = db.Close() }, nil
}

// CopyFrom bulk-inserts rows and returns the driver's affected-row count.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(Dialect.QuoteFQN(r.table), mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Exec executes one statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
	}
	return nil
}
