// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/config"
)

// PostgresConnector implements the DatabaseConnector interface for PostgreSQL
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	creds  *config.DatabaseCredentials
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, creds *config.DatabaseCredentials, logger *zap.Logger) (*PostgresConnector, error) {
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", creds.Host),
		zap.Int("port", creds.Port),
		zap.String("database", creds.Database),
		zap.String("user", creds.User))

	// Open database connection
	db, err := sqlx.Open("postgres", creds.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db.DB,
		creds.MaxOpenConns,
		creds.MaxIdleConns,
		creds.ConnMaxLifetime,
		creds.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		creds:  creds,
	}

	LogConnectionStats(logger, creds.Database, db.DB)
	return connector, nil
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the PostgreSQL connection and required permissions
func (c *PostgresConnector) Validate() error {
	// Check database version
	var version string
	if err := c.db.QueryRow("SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	// Check permissions by creating a temp table
	_, err := c.db.Exec(`
		DO $$
		BEGIN
			CREATE TEMP TABLE _permission_check (id serial, test text);
			INSERT INTO _permission_check (test) VALUES ('test');
			DROP TABLE _permission_check;
		EXCEPTION WHEN OTHERS THEN
			RAISE EXCEPTION 'Permission check failed: %', SQLERRM;
		END $$;
	`)
	if err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.creds.Database),
		zap.String("host", c.creds.Host),
		zap.Int("port", c.creds.Port))
	return nil
}

// ListTables returns the names of every table in the public schema.
func (c *PostgresConnector) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := c.db.SelectContext(ctx, &tables,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list database tables: %w", err)
	}

	c.logger.Info("Listed database tables", zap.Strings("tables", tables))
	return tables, nil
}

// Close closes the connection and releases resources
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection",
		zap.String("database", c.creds.Database))
	return c.db.Close()
}
