// pkg/pipeline/runner.go
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/cleaner"
	"github.com/northstar-data/retail-ingress/pkg/load"
	"github.com/northstar-data/retail-ingress/pkg/schema"
	"github.com/northstar-data/retail-ingress/pkg/sink"
)

// Runner owns the I/O around the cleaning core: it pulls a raw batch from
// the job's source, runs the cleaner, persists the invalid log, and uploads
// the valid partition. The cleaner itself never touches a connection.
type Runner struct {
	cleaner  *cleaner.BatchCleaner
	uploader *load.Uploader
	invalid  sink.InvalidSink
	logger   *zap.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(c *cleaner.BatchCleaner, u *load.Uploader, invalid sink.InvalidSink, logger *zap.Logger) (*Runner, error) {
	if c == nil {
		return nil, errors.New("cleaner cannot be nil")
	}
	if u == nil {
		return nil, errors.New("uploader cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Runner{
		cleaner:  c,
		uploader: u,
		invalid:  invalid,
		logger:   logger,
	}, nil
}

// Run executes one entity pipeline end to end.
func (r *Runner) Run(ctx context.Context, job EntityJob) *Result {
	result := newResult(job)
	logger := r.logger.With(
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Schema.Kind())),
		zap.String("table", job.Table))

	logger.Info("Starting entity pipeline")

	batch, err := job.Source(ctx)
	if err != nil {
		result.Err = fmt.Errorf("extraction failed: %w", err)
		logger.Error("Entity pipeline failed", zap.Error(result.Err))
		return result.finish()
	}
	result.RowsRead = batch.Len()

	cleaned, err := r.cleaner.Clean(ctx, batch, job.Schema)
	if err != nil {
		result.Err = fmt.Errorf("cleaning failed: %w", err)
		logger.Error("Entity pipeline failed", zap.Error(result.Err))
		return result.finish()
	}
	result.RowsValid = cleaned.ValidCount()
	result.RowsInvalid = cleaned.InvalidCount()

	if r.invalid != nil {
		r.cleaner.PersistInvalid(ctx, r.invalid, job.Schema, cleaned)
	}

	columns := columnsOf(job.Schema)
	if err := r.uploader.Replace(ctx, job.Table, columns, cleaned.Valid); err != nil {
		result.Err = fmt.Errorf("upload failed: %w", err)
		logger.Error("Entity pipeline failed", zap.Error(result.Err))
		return result.finish()
	}

	result.Success = true
	logger.Info("Entity pipeline completed",
		zap.Int("rows_read", result.RowsRead),
		zap.Int("rows_valid", result.RowsValid),
		zap.Int("rows_invalid", result.RowsInvalid))
	return result.finish()
}

// RunAll executes the jobs sequentially; one entity's failure does not stop
// the others. Returns every result plus an aggregate error when any job
// failed.
func (r *Runner) RunAll(ctx context.Context, jobs []EntityJob) ([]*Result, error) {
	results := make([]*Result, 0, len(jobs))
	failed := 0

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := r.Run(ctx, job)
		results = append(results, result)
		if !result.Success {
			failed++
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d entity pipelines failed", failed, len(jobs))
	}
	return results, nil
}

// columnsOf returns the schema's field names in declaration order.
func columnsOf(s *schema.Schema) []string {
	fields := s.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return columns
}
