// pkg/extract/rds.go
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// TableReader extracts whole relational tables into tabular batches. Pure
// plumbing: connect, fetch, retry a bounded number of times, return raw
// rows.
type TableReader struct {
	db       *sqlx.DB
	logger   *zap.Logger
	attempts int
	delay    time.Duration
}

// NewTableReader creates a reader over an open database connection.
func NewTableReader(db *sqlx.DB, logger *zap.Logger, attempts int, delay time.Duration) (*TableReader, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if attempts < 1 {
		attempts = 1
	}

	return &TableReader{
		db:       db,
		logger:   logger,
		attempts: attempts,
		delay:    delay,
	}, nil
}

// ReadTable extracts every row of the named table, retrying transient
// failures with a fixed delay before surfacing a fatal error.
func (r *TableReader) ReadTable(ctx context.Context, table string) (*model.Batch, error) {
	var batch *model.Batch

	err := withRetry(ctx, r.logger, "read table "+table, r.attempts, r.delay, func() error {
		var readErr error
		batch, readErr = r.readOnce(ctx, table)
		return readErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read table %q: %w", table, err)
	}

	r.logger.Info("Extracted table",
		zap.String("table", table),
		zap.Int("rows", batch.Len()))
	return batch, nil
}

func (r *TableReader) readOnce(ctx context.Context, table string) (*model.Batch, error) {
	rows, err := r.db.QueryxContext(ctx, "SELECT * FROM "+table) //nolint:gosec // table names come from config, not user input
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	batch := model.NewBatch(columns, 0)
	for rows.Next() {
		row := make(map[string]interface{}, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		batch.Rows = append(batch.Rows, model.Record(row))
	}
	return batch, rows.Err()
}

// withRetry runs op up to attempts times with a fixed delay between tries.
func withRetry(ctx context.Context, logger *zap.Logger, what string, attempts int, delay time.Duration, op func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}

		logger.Error("Operation failed",
			zap.String("operation", what),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", what, attempts, err)
}
