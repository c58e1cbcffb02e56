package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	Enabled bool `json:"enabled"`

	// Scheduling
	AutoSyncEnabled  bool `json:"auto_sync_enabled"`
	AutoSyncInterval int  `json:"auto_sync_interval"` // seconds, periodic push check
	SyncOnStartup    bool `json:"sync_on_startup"`
	ProbeInterval    int  `json:"probe_interval"` // seconds, connectivity health probe

	// Limits
	RequestTimeout int `json:"request_timeout"` // seconds, per sync HTTP request
	MaxRetries     int `json:"max_retries"`     // per queue entry before dead-lettering
}

// LoadSyncConfig loads sync configuration from environment or file
func LoadSyncConfig() *SyncConfig {
	// Try to load from file first
	if configPath := os.Getenv("SYNC_CONFIG_PATH"); configPath != "" {
		if cfg, err := loadSyncConfigFromFile(configPath); err == nil {
			return cfg
		}
	}

	// Otherwise use defaults
	return getDefaultSyncConfig()
}

// loadSyncConfigFromFile loads sync config from JSON file
func loadSyncConfigFromFile(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SyncConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// getDefaultSyncConfig returns default sync configuration
func getDefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Enabled:          getBoolEnv("SYNC_ENABLED", true),
		AutoSyncEnabled:  getBoolEnv("SYNC_AUTO_ENABLED", true),
		AutoSyncInterval: getIntEnv("SYNC_AUTO_INTERVAL", 300),
		SyncOnStartup:    getBoolEnv("SYNC_ON_STARTUP", true),
		ProbeInterval:    getIntEnv("SYNC_PROBE_INTERVAL", 30),
		RequestTimeout:   getIntEnv("SYNC_TIMEOUT", 15),
		MaxRetries:       getIntEnv("SYNC_MAX_RETRIES", 5),
	}
}

// Helper functions for environment variables

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
