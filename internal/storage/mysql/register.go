package mysql

import (
	"context"

	"healthetl/internal/storage"
)

// newRepository is swapped in tests.
var newRepository = NewRepository

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, _, err := newRepository(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("mysql", storage.DialectBootstrapper(Dialect))
}
