// pkg/sink/postgres.go
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// PostgresSink persists the invalid-data log into a tracking table in the
// target database. Each write replaces the kind's previous entries inside
// one transaction, so re-persisting is idempotent.
type PostgresSink struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresSink creates the sink and ensures the tracking table exists.
func NewPostgresSink(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*PostgresSink, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	s := &PostgresSink{db: db, logger: logger}
	if err := s.setupTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup invalid-data table: %w", err)
	}
	return s, nil
}

// setupTable ensures the invalid_on_ingress tracking table exists.
func (s *PostgresSink) setupTable(ctx context.Context) error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.invalid_on_ingress (
			id SERIAL PRIMARY KEY,
			record_kind TEXT NOT NULL,
			row_identifier INTEGER NOT NULL,
			field_name TEXT NOT NULL,
			raw_value TEXT,
			reason TEXT NOT NULL,
			recorded_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	s.logger.Info("Ensured invalid_on_ingress table exists")
	return nil
}

// Name identifies the sink in logs and wrapped errors.
func (s *PostgresSink) Name() string {
	return "postgres:invalid_on_ingress"
}

// WriteFailures replaces the kind's entries with the given failures inside
// a single transaction. Entries are stamped with the write time.
func (s *PostgresSink) WriteFailures(ctx context.Context, kind string, failures []model.ValidationFailure) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM public.invalid_on_ingress WHERE record_kind = $1`, kind); err != nil {
		return fmt.Errorf("failed to clear previous entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO public.invalid_on_ingress
		(record_kind, row_identifier, field_name, raw_value, reason, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	recorded := time.Now().UTC()
	for _, failure := range failures {
		for _, fe := range failure.Errors {
			if _, err = stmt.ExecContext(ctx,
				kind,
				failure.RowID,
				fe.Field,
				toNullableString(fe.Raw),
				fe.Reason,
				recorded,
			); err != nil {
				return fmt.Errorf("failed to insert invalid-data entry: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded invalid-data entries",
		zap.String("kind", kind),
		zap.Int("rows", len(failures)))
	return nil
}

// Close is a no-op; the connection is owned by the caller.
func (s *PostgresSink) Close() error {
	return nil
}

// toNullableString safely converts a raw value to a nullable string.
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	str := fmt.Sprintf("%v", v)
	return &str
}
