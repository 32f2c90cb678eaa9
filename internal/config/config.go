// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	StorageRoot  string
	LogLevel     string
	APIBaseURL   string
	SessionID    string
	PageDelay    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	sessionID := os.Getenv("SESSION_ID")
	if sessionID == "" {
		return nil, fmt.Errorf("SESSION_ID is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/crawler.db"
	}

	storageRoot := os.Getenv("STORAGE_ROOT")
	if storageRoot == "" {
		storageRoot = "./data/instagram"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://i.instagram.com/api/v1"
	}

	delay := 5 * time.Second
	if raw := os.Getenv("PAGE_DELAY_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid PAGE_DELAY_SECONDS %q", raw)
		}
		delay = time.Duration(secs) * time.Second
	}

	return &Config{
		DatabasePath: dbPath,
		StorageRoot:  storageRoot,
		LogLevel:     logLevel,
		APIBaseURL:   baseURL,
		SessionID:    sessionID,
		PageDelay:    delay,
	}, nil
}
