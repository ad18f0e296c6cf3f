package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"healthetl/internal/table"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to columns) and return the number of rows
// reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error encountered. A progress line is logged after
// every successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
	log zerolog.Logger,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total     int64
		batches   int64
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
		lastTotal int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Error().Err(err).Int64("inserted", n).Int64("total", total).Msg("loader: copy failed")
			return err
		}

		batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(total-lastTotal) / since.Seconds()
		}
		log.Debug().
			Int64("batch", batches).
			Float64("rps", rps).
			Int64("inserted", n).
			Int64("total", total).
			Dur("elapsed", now.Sub(start)).
			Msg("loader: batch flushed")
		lastFlush = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				log.Info().Int64("batches", batches).Int64("total", total).Msg("loader: done")
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// DefaultBatchSize is used by WriteTable when batchSize is not positive.
const DefaultBatchSize = 500

// WriteTable streams every row of t into repo in batches.
func WriteTable(ctx context.Context, repo Repository, t *table.Table, batchSize int, log zerolog.Logger) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := make(chan []any, batchSize)
	go func() {
		defer close(rows)
		for i := range t.Rows {
			select {
			case rows <- t.Values(i):
			case <-ctx.Done():
				return
			}
		}
	}()
	return LoadBatches(ctx, t.Columns, rows, batchSize, repo.CopyFrom, log.With().Str("table", t.Name).Logger())
}
