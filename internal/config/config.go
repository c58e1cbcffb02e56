package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all node configuration
type Config struct {
	NodeEnv    string
	Port       string
	InstanceID string
	Upstream   UpstreamConfig
	Database   DatabaseConfig
}

// UpstreamConfig holds the connection settings for the HostelMate server
type UpstreamConfig struct {
	BaseURL string
}

// DatabaseConfig holds mirror database configuration
type DatabaseConfig struct {
	Driver   string // sqlite or postgres
	Path     string // sqlite file path
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	upstreamURL := os.Getenv("UPSTREAM_URL")
	if upstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_URL is required")
	}

	return &Config{
		NodeEnv:    getEnv("NODE_ENV", "development"),
		Port:       getEnv("PORT", "3001"),
		InstanceID: os.Getenv("INSTANCE_ID"),
		Upstream: UpstreamConfig{
			BaseURL: upstreamURL,
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "./mirror.db"),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "hostelmate"),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
