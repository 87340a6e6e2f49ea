// pkg/pipeline/job.go
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/schema"
)

// BatchSource supplies one raw batch from an extraction collaborator.
type BatchSource func(ctx context.Context) (*model.Batch, error)

// EntityJob describes one entity pipeline: where the raw batch comes from,
// which schema cleans it, and which destination table receives the valid
// partition.
type EntityJob struct {
	ID        string    // Unique job identifier
	Schema    *schema.Schema
	Table     string    // Destination table name
	Source    BatchSource
	CreatedAt time.Time // Job creation timestamp
}

// NewEntityJob creates a new entity job with defaults
func NewEntityJob(s *schema.Schema, table string, source BatchSource) EntityJob {
	return EntityJob{
		ID:        uuid.New().String(),
		Schema:    s,
		Table:     table,
		Source:    source,
		CreatedAt: time.Now(),
	}
}

// Result represents the outcome of one entity pipeline run.
type Result struct {
	JobID       string
	Kind        schema.Kind
	Table       string
	Success     bool
	RowsRead    int
	RowsValid   int
	RowsInvalid int
	Err         error
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// newResult initializes a result for a job.
func newResult(job EntityJob) *Result {
	return &Result{
		JobID:     job.ID,
		Kind:      job.Schema.Kind(),
		Table:     job.Table,
		StartTime: time.Now(),
	}
}

// finish stamps the end time and duration.
func (r *Result) finish() *Result {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	return r
}
