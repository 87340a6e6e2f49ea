// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/northstar-data/retail-ingress/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSourceConnector connects to the source RDS database.
func (f *ConnectorFactory) CreateSourceConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating source connector")

	creds, err := config.ReadDBCreds(f.cfg.SourceCredsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load source credentials: %w", err)
	}

	connector, err := NewPostgresConnector(ctx, creds, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create source connector: %w", err)
	}

	return connector, nil
}

// CreateTargetConnector connects to the target warehouse database.
func (f *ConnectorFactory) CreateTargetConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating target connector")

	creds, err := config.ReadDBCreds(f.cfg.TargetCredsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load target credentials: %w", err)
	}

	connector, err := NewPostgresConnector(ctx, creds, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create target connector: %w", err)
	}

	return connector, nil
}

// CreateAllConnectors creates both the source and target connectors
func (f *ConnectorFactory) CreateAllConnectors(ctx context.Context) (*PostgresConnector, *PostgresConnector, error) {
	source, err := f.CreateSourceConnector(ctx)
	if err != nil {
		return nil, nil, err
	}

	target, err := f.CreateTargetConnector(ctx)
	if err != nil {
		source.Close() // Clean up the source connection if the target fails
		return nil, nil, err
	}

	return source, target, nil
}
