package config

import (
	"os"
	"strconv"

	"goenrich/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Run      RunConfig
}

// DatabaseConfig holds database connection settings. The URL is required
// only when result persistence is requested.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// RunConfig holds enrichment run defaults overridable per invocation
type RunConfig struct {
	InterGeneCorrelation float64
	MinSetSize           int
	Workers              int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Run: RunConfig{
			InterGeneCorrelation: getEnvFloatOrDefault("INTER_GENE_COR", 0.01),
			MinSetSize:           getEnvIntOrDefault("MIN_SET_SIZE", 10),
			Workers:              getEnvIntOrDefault("WORKERS", 0),
		},
	}
	if cfg.Run.MinSetSize < 1 {
		return nil, errors.ConfigInvalid("MIN_SET_SIZE must be positive")
	}
	if c := cfg.Run.InterGeneCorrelation; c <= -1 || c >= 1 {
		return nil, errors.ConfigInvalid("INTER_GENE_COR must be in (-1, 1)")
	}
	return cfg, nil
}

// RequireDatabase validates the database settings for persistence paths
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
