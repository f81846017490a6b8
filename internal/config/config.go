// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for all databases, always absolute
	Port            int
	DevMode         bool
	LogLevel        string
	FinnhubAPIKey   string // Optional, enables the Finnhub news source
	CoinGeckoAPIKey string // Optional, raises CoinGecko rate limits
	SampleSchedule  string // Cron schedule for the price sampler
	Backup          *BackupConfig
}

// BackupConfig holds database backup configuration.
// S3 upload is disabled unless Bucket is set.
type BackupConfig struct {
	Enabled       bool
	KeepLocal     int    // Number of local snapshots to retain
	RetentionDays int    // Cloud archive retention, 0 keeps everything
	Bucket        string // S3 bucket name (empty disables cloud upload)
	Endpoint      string // Custom S3-compatible endpoint, empty for AWS
	Region        string
	AccessKeyID   string
	SecretKey     string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. Check MARKETPULSE_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("MARKETPULSE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8000),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		FinnhubAPIKey:   getEnv("FINNHUB_API_KEY", ""),
		CoinGeckoAPIKey: getEnv("COINGECKO_API_KEY", ""),
		SampleSchedule:  getEnv("PRICE_SAMPLE_SCHEDULE", "@every 60s"),
		Backup: &BackupConfig{
			Enabled:       getEnvAsBool("BACKUP_ENABLED", true),
			KeepLocal:     getEnvAsInt("BACKUP_KEEP_LOCAL", 7),
			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
			Bucket:        getEnv("BACKUP_S3_BUCKET", ""),
			Endpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:        getEnv("BACKUP_S3_REGION", "auto"),
			AccessKeyID:   getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretKey:     getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if c.Backup != nil && c.Backup.Bucket != "" {
		if c.Backup.AccessKeyID == "" || c.Backup.SecretKey == "" {
			return fmt.Errorf("backup bucket configured without credentials")
		}
	}
	return nil
}

// getEnv retrieves a string environment variable with a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an integer environment variable with a fallback
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsBool retrieves a boolean environment variable with a fallback
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
