package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"healthetl/internal/config"
	"healthetl/internal/ddl"
	"healthetl/internal/export"
	"healthetl/internal/storage"
	"healthetl/internal/table"

	_ "healthetl/internal/storage/all"
)

// writeSink persists the final table and returns the number of rows written.
// key names the primary key columns used when the table is auto-created.
func writeSink(ctx context.Context, s config.Sink, t *table.Table, key []string, log zerolog.Logger) (int64, error) {
	switch {
	case s.Kind == "" || s.Kind == config.SinkNone:
		return 0, nil
	case s.Kind == config.SinkCSV:
		if err := export.WriteCSVFile(ctx, s.Path, t); err != nil {
			return 0, err
		}
		return int64(t.Len()), nil
	case s.IsDatabase():
		return writeDatabase(ctx, s, t, key, log)
	}
	return 0, fmt.Errorf("unknown sink kind %q", s.Kind)
}

func writeDatabase(ctx context.Context, s config.Sink, t *table.Table, key []string, log zerolog.Logger) (int64, error) {
	repo, err := storage.New(ctx, storage.Config{
		Kind:    s.Kind,
		DSN:     s.DSN,
		Table:   s.Table,
		Columns: t.Columns,
	})
	if err != nil {
		return 0, err
	}
	defer repo.Close()

	if s.AutoCreate {
		def := ddl.FromTable(s.Table, t, key)
		if err := storage.EnsureTable(ctx, s.Kind, repo, def); err != nil {
			return 0, err
		}
		log.Debug().Str("table", s.Table).Str("sink", s.Kind).Msg("destination table ensured")
	}

	return storage.WriteTable(ctx, repo, t, s.BatchSize, log)
}

// tableKey returns the key of the first join, which identifies a final row.
func tableKey(cfg *config.File) []string {
	if len(cfg.Joins) == 0 {
		return nil
	}
	return cfg.Joins[0].Key
}
