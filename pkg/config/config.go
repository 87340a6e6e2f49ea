// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Database connections
	SourceCredsPath string // YAML credentials for the source RDS
	TargetCredsPath string // YAML credentials for the target warehouse

	// Store API
	API *APIConfig

	// Object storage
	ProductsS3Address string
	DateDetailsURL    string // s3://bucket/key address or plain https URL
	CardDetailsPDF    string

	// Pipeline settings
	RetryAttempts  int
	RetryDelay     time.Duration
	WorkerPoolSize int
	InvalidLogDir  string

	// Logging
	LogLevel  string
	LogFormat string
}

// APIConfig holds the store API endpoints and key.
type APIConfig struct {
	Key             string
	StoreCountURL   string
	StoreDetailsURL string // contains a {store_number} placeholder
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		SourceCredsPath:   getEnv("SOURCE_DB_CREDS", "db_creds.yaml"),
		TargetCredsPath:   getEnv("TARGET_DB_CREDS", "target_db_creds.yaml"),
		ProductsS3Address: getEnv("PRODUCTS_S3_ADDRESS", "s3://data-handling-public/products.csv"),
		DateDetailsURL:    getEnv("DATE_DETAILS_URL", ""),
		CardDetailsPDF:    getEnv("CARD_DETAILS_PDF", ""),
		RetryAttempts:     getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryDelay:        time.Duration(getEnvAsInt("RETRY_DELAY_MS", 5000)) * time.Millisecond,
		WorkerPoolSize:    getEnvAsInt("WORKER_POOL_SIZE", 0), // 0 means single-threaded cleaning
		InvalidLogDir:     getEnv("INVALID_LOG_DIR", "invalid_data"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	cfg.API = &APIConfig{
		Key:             getEnv("STORE_API_KEY", ""),
		StoreCountURL:   getEnv("STORE_COUNT_URL", ""),
		StoreDetailsURL: getEnv("STORE_DETAILS_URL", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.SourceCredsPath == "" {
		return errors.New("source credentials path is required")
	}

	if c.TargetCredsPath == "" {
		return errors.New("target credentials path is required")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	if c.RetryDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
