// pkg/config/credentials.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseCredentials holds the connection parameters read from a YAML
// credentials file.
type DatabaseCredentials struct {
	User     string `yaml:"RDS_USER"`
	Password string `yaml:"RDS_PASSWORD"`
	Host     string `yaml:"RDS_HOST"`
	Port     int    `yaml:"RDS_PORT"`
	Database string `yaml:"RDS_DATABASE"`
	SSLMode  string `yaml:"RDS_SSLMODE"`

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ReadDBCreds reads database credentials from a YAML file and verifies that
// every required key is present.
func ReadDBCreds(path string) (*DatabaseCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	var creds DatabaseCredentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}

	missing := ""
	switch {
	case creds.User == "":
		missing = "RDS_USER"
	case creds.Password == "":
		missing = "RDS_PASSWORD"
	case creds.Host == "":
		missing = "RDS_HOST"
	case creds.Port == 0:
		missing = "RDS_PORT"
	case creds.Database == "":
		missing = "RDS_DATABASE"
	}
	if missing != "" {
		return nil, fmt.Errorf("credentials file %s is missing required key %s", path, missing)
	}

	if creds.SSLMode == "" {
		creds.SSLMode = "disable"
	}

	creds.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	creds.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", 10)
	creds.ConnMaxLifetime = time.Duration(getEnvAsInt("DB_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second
	creds.ConnMaxIdleTime = time.Duration(getEnvAsInt("DB_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second

	return &creds, nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *DatabaseCredentials) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
