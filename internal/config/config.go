// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	LogLevel         string
	// LogFormat selects console (default) or json output.
	LogFormat string
	// AdminUserIDs are Telegram IDs that bypass permission checks and may
	// reopen closed reports. Regular users are granted capabilities in the
	// database by an administrator.
	AdminUserIDs []int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
	}

	adminsStr := os.Getenv("ADMIN_USER_IDS")
	if adminsStr != "" {
		for idStr := range strings.SplitSeq(adminsStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.AdminUserIDs) == 0 {
		errs = append(errs, "at least one admin (ADMIN_USER_IDS) is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsAdmin checks if a Telegram user ID belongs to an administrator.
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminUserIDs, userID)
}
