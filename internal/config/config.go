package config

import (
	"os"
	"strconv"
	"time"

	"github.com/luke-benham/Cytometry/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
}

// DatabaseConfig holds database settings. The store is a single named
// SQLite file, reinitializable on demand.
type DatabaseConfig struct {
	File string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DataConfig holds data ingestion settings
type DataConfig struct {
	// SourceFile is the tabular cell-count file (.csv or .xlsx) used by the
	// destructive reload action.
	SourceFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			File: getEnvOrDefault("DB_FILE", "trial_data.db"),
		},
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			SourceFile: getEnvOrDefault("SOURCE_FILE", "data/cell-count.csv"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.File == "" {
		return errors.ConfigInvalid("database file path is required")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("server port must be numeric")
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
