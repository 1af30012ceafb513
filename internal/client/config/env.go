package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from environment variables, loading a
// local .env file first when one exists. Unset variables leave the current
// value untouched; malformed values are ignored rather than fatal, since env
// is the lowest-precedence override.
func parseEnv(cfg *Config) {
	// missing .env is the normal case
	_ = godotenv.Load()

	if v := os.Getenv("HERDLOG_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("HERDLOG_DB_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("HERDLOG_AUTOSAVE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AutosaveInterval = d
		}
	}
	if v := os.Getenv("HERDLOG_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("HERDLOG_AI_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AIEnabled = b
		}
	}
}
