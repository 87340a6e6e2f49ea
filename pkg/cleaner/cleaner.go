// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/schema"
	"github.com/northstar-data/retail-ingress/pkg/sink"
)

// BatchCleaner drives row validation over full tabular batches and
// partitions the rows into valid and invalid result sets. It owns no I/O
// beyond structured logging; persistence of the invalid set goes through an
// injected sink.
type BatchCleaner struct {
	logger  *zap.Logger
	workers int
}

// NewBatchCleaner creates a new BatchCleaner instance.
func NewBatchCleaner(logger *zap.Logger) (*BatchCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &BatchCleaner{
		logger:  logger,
		workers: 1,
	}, nil
}

// WithWorkers sets the number of concurrent row validators. Values below
// two keep cleaning single-threaded. Output order is reassembled to input
// order either way.
func (c *BatchCleaner) WithWorkers(n int) *BatchCleaner {
	if n > 1 {
		c.workers = n
	}
	return c
}

// Clean validates every row of the batch against the schema exactly once
// and returns the order-preserving valid/invalid partition. A required
// column missing from the batch is a fatal configuration error surfaced
// before any row runs; per-row problems are never errors, only data in the
// result. A cancelled context aborts the batch and callers must discard any
// partial state.
func (c *BatchCleaner) Clean(ctx context.Context, batch *model.Batch, s *schema.Schema) (*model.BatchResult, error) {
	if batch == nil {
		return nil, errors.New("batch cannot be nil")
	}

	validator, err := NewRowValidator(s)
	if err != nil {
		return nil, err
	}

	if err := checkRequiredColumns(batch, s); err != nil {
		return nil, err
	}

	type outcome struct {
		record  model.NormalizedRecord
		failure *model.ValidationFailure
	}

	outcomes := make([]outcome, len(batch.Rows))

	if c.workers > 1 {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < c.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					rec, failure := validator.ValidateRow(i, batch.Rows[i])
					outcomes[i] = outcome{record: rec, failure: failure}
				}
			}()
		}

	feed:
		for i := range batch.Rows {
			select {
			case indexes <- i:
			case <-ctx.Done():
				break feed
			}
		}
		close(indexes)
		wg.Wait()
	} else {
		for i, row := range batch.Rows {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("cleaning aborted: %w", err)
			}
			rec, failure := validator.ValidateRow(i, row)
			outcomes[i] = outcome{record: rec, failure: failure}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cleaning aborted: %w", err)
	}

	result := &model.BatchResult{
		Valid:   make([]model.NormalizedRecord, 0, len(batch.Rows)),
		Invalid: make([]model.ValidationFailure, 0),
	}

	for _, o := range outcomes {
		if o.failure != nil {
			result.Invalid = append(result.Invalid, *o.failure)
			c.logInvalidRow(s, o.failure)
			continue
		}
		result.Valid = append(result.Valid, o.record)
	}

	c.logger.Info("Batch cleaned",
		zap.String("kind", string(s.Kind())),
		zap.Int("rows", batch.Len()),
		zap.Int("valid", result.ValidCount()),
		zap.Int("invalid", result.InvalidCount()))

	return result, nil
}

// PersistInvalid writes the invalid set, with original raw values and
// reasons, to the given durable sink. Re-running with no new data
// overwrites rather than appends. A sink failure is recorded and swallowed;
// it never alters the computed result.
func (c *BatchCleaner) PersistInvalid(ctx context.Context, dst sink.InvalidSink, s *schema.Schema, result *model.BatchResult) {
	if dst == nil || result == nil {
		return
	}

	if err := dst.WriteFailures(ctx, string(s.Kind()), result.Invalid); err != nil {
		werr := &model.SinkWriteError{Sink: dst.Name(), Err: err}
		c.logger.Error("Failed to persist invalid-data log", zap.Error(werr))
	}
}

// logInvalidRow emits one structured entry per invalid row. Logging must
// never affect classification, so any panic from the logging path is
// swallowed.
func (c *BatchCleaner) logInvalidRow(s *schema.Schema, failure *model.ValidationFailure) {
	defer func() {
		_ = recover()
	}()

	reasons := make([]string, 0, len(failure.Errors))
	for _, fe := range failure.Errors {
		reasons = append(reasons, fmt.Sprintf("%s: %s (raw=%v)", fe.Field, fe.Reason, fe.Raw))
	}

	c.logger.Warn("Row failed validation",
		zap.String("kind", string(s.Kind())),
		zap.Int("row", failure.RowID),
		zap.Strings("reasons", reasons))
}

// checkRequiredColumns verifies that every required schema column exists in
// the batch. Unknown extra columns are ignored.
func checkRequiredColumns(batch *model.Batch, s *schema.Schema) error {
	for _, col := range s.RequiredColumns() {
		if !batch.HasColumn(col) {
			return model.NewSchemaConfigurationError(string(s.Kind()),
				"required column %q missing from input batch", col)
		}
	}
	return nil
}
