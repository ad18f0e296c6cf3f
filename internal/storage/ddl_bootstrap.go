package storage

import (
	"context"
	"fmt"
	"sync"

	"healthetl/internal/ddl"
)

// DDLBootstrapper creates the destination table described by def when it
// does not exist. Backends register one per kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, def ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage kind %q", kind)
	}
	return fn(ctx, repo, def)
}

// DialectBootstrapper returns a DDLBootstrapper that renders def for d and
// executes it.
func DialectBootstrapper(d ddl.Dialect) DDLBootstrapper {
	return func(ctx context.Context, repo Repository, def ddl.TableDef) error {
		stmt, err := ddl.BuildCreateTableSQL(def, d)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: create table %s: %w", d.Name, def.FQN, err)
		}
		return nil
	}
}
