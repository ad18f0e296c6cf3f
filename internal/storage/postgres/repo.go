// Package postgres implements a PostgreSQL-backed storage.Repository using
// pgx. Batches are loaded with the COPY protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"healthetl/internal/ddl"
)

// Dialect renders PostgreSQL DDL.
var Dialect = ddl.Dialect{
	Name:  "postgres",
	Quote: ddl.DoubleQuote,
	Types: map[ddl.Type]string{
		ddl.Integer: "BIGINT",
		ddl.Float:   "DOUBLE PRECISION",
		ddl.Text:    "TEXT",
	},
}

// Repository is a pgx pool bound to one target table.
type Repository struct {
	pool  *pgxpool.Pool
	table string
}

// NewRepository opens a pool for dsn and returns a Repository plus a close
// function.
func NewRepository(ctx context.Context, dsn, table string) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, table: table}, pool.Close, nil
}

// Identifier splits "schema.table" into a pgx identifier.
func Identifier(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}

// CopyFrom streams rows into the table with COPY.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, Identifier(r.table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy: %s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// Exec executes one statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.pool.Exec(ctx, sqlText); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}
