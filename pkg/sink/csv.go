// pkg/sink/csv.go
package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// CSVSink materializes the invalid-data log as delimited tabular text, one
// file per record kind, under a base directory. Each write truncates the
// kind's file, so re-persisting the same batch is idempotent.
type CSVSink struct {
	dir string
}

// NewCSVSink creates a sink rooted at dir, creating it if necessary.
func NewCSVSink(dir string) (*CSVSink, error) {
	if dir == "" {
		return nil, errors.New("sink directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}
	return &CSVSink{dir: dir}, nil
}

// Name identifies the sink in logs and wrapped errors.
func (s *CSVSink) Name() string {
	return "csv:" + s.dir
}

// WriteFailures writes one record per (row, field) failure: row id, field,
// raw value, reason, timestamp. The timestamp is the write time, stamped
// here rather than during cleaning. The file is closed on every exit path.
func (s *CSVSink) WriteFailures(ctx context.Context, kind string, failures []model.ValidationFailure) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, kind+"_invalid.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open invalid-data log %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row_id", "field", "raw_value", "reason", "recorded_at"}); err != nil {
		return fmt.Errorf("failed to write log header: %w", err)
	}

	recorded := time.Now().UTC().Format(time.RFC3339)
	for _, failure := range failures {
		for _, fe := range failure.Errors {
			record := []string{
				strconv.Itoa(failure.RowID),
				fe.Field,
				fmt.Sprintf("%v", fe.Raw),
				fe.Reason,
				recorded,
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write log entry: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush invalid-data log: %w", err)
	}
	return f.Sync()
}

// Close is a no-op; the sink holds no open handles between writes.
func (s *CSVSink) Close() error {
	return nil
}
