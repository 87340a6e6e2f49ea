// pkg/sink/sink.go
package sink

import (
	"context"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// InvalidSink persists the invalid partition of a cleaned batch: one entry
// per failing field of each invalid row, with the original raw value and
// reason. Writing the same kind twice with no new data overwrites rather
// than appends.
type InvalidSink interface {
	// Name identifies the sink in logs and wrapped errors.
	Name() string

	// WriteFailures persists every failure for the given record kind,
	// replacing whatever that kind previously held.
	WriteFailures(ctx context.Context, kind string, failures []model.ValidationFailure) error

	// Close releases the sink's resources.
	Close() error
}
