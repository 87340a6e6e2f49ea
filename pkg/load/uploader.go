// pkg/load/uploader.go
package load

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/model"
)

// Uploader loads cleaned batches into the destination store with
// replace-table semantics: the previous contents of the table are dropped
// on every upload.
type Uploader struct {
	db       *sqlx.DB
	logger   *zap.Logger
	attempts int
	delay    time.Duration
}

// NewUploader creates an uploader over an open target connection.
func NewUploader(db *sqlx.DB, logger *zap.Logger, attempts int, delay time.Duration) (*Uploader, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if attempts < 1 {
		attempts = 1
	}

	return &Uploader{
		db:       db,
		logger:   logger,
		attempts: attempts,
		delay:    delay,
	}, nil
}

// Replace uploads the records into table, replacing whatever it previously
// held. Columns fixes the column order; records missing a column store
// NULL. Retries a bounded number of times with a fixed delay, then
// surfaces a fatal error.
func (u *Uploader) Replace(ctx context.Context, table string, columns []string, records []model.NormalizedRecord) error {
	if len(columns) == 0 {
		return errors.New("at least one column is required")
	}

	var err error
	for attempt := 1; attempt <= u.attempts; attempt++ {
		if err = u.replaceOnce(ctx, table, columns, records); err == nil {
			u.logger.Info("Data uploaded",
				zap.String("table", table),
				zap.Int("rows", len(records)))
			return nil
		}

		u.logger.Error("Failed to upload data",
			zap.String("table", table),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", u.attempts),
			zap.Error(err))

		if attempt == u.attempts {
			break
		}
		select {
		case <-time.After(u.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("failed to upload data to %q after %d attempts: %w", table, u.attempts, err)
}

// replaceOnce performs one drop-create-insert cycle inside a transaction.
func (u *Uploader) replaceOnce(ctx context.Context, table string, columns []string, records []model.NormalizedRecord) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				u.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
	}

	if _, err = tx.ExecContext(ctx,
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(table))); err != nil {
		return fmt.Errorf("failed to drop previous table: %w", err)
	}

	defs := make([]string, len(quoted))
	for i, col := range quoted {
		defs[i] = col + " TEXT"
	}
	if _, err = tx.ExecContext(ctx,
		fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdentifier(table), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			args[i] = renderValue(record[col])
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// renderValue converts a normalized value to its storage text form. Dates
// store as YYYY-MM-DD, decimals exactly, everything else via %v.
func renderValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format("2006-01-02")
	case decimal.Decimal:
		return val.String()
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// quoteIdentifier double-quotes a SQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
