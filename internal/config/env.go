package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// loadFromEnv overrides config from a .env file (if present) and the
// process environment. The bearer token only ever enters through here.
func loadFromEnv(cfg *Config) {
	// Best effort: a missing .env is the normal case.
	_ = godotenv.Load()

	setStr := func(key, field string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
			cfg.Sources[field] = SourceEnv
		}
	}
	setInt := func(key, field string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				*dst = i
				cfg.Sources[field] = SourceEnv
			}
		}
	}

	setStr("ZPLACE_TOKEN", "token", &cfg.Token)
	setStr("ZPLACE_ENDPOINT", "endpoint", &cfg.Endpoint)
	setInt("ZLEVELS_WIDTH", "width", &cfg.Width)
	setInt("ZLEVELS_HEIGHT", "height", &cfg.Height)
	setInt("ZLEVELS_CONCURRENCY", "concurrency", &cfg.Concurrency)
	setInt("ZLEVELS_TIMEOUT", "timeout_seconds", &cfg.TimeoutSeconds)
	setInt("ZLEVELS_RETRIES", "retries", &cfg.Retries)
	setStr("ZLEVELS_OUT", "out_file", &cfg.OutFile)
	setStr("ZLEVELS_TXT", "text_file", &cfg.TextFile)
	setStr("ZLEVELS_SECTORS", "sectors_file", &cfg.SectorsFile)
	setStr("ZLEVELS_LOG_DIR", "log_dir", &cfg.LogDir)
	setStr("ZLEVELS_LOG_LEVEL", "log_level", &cfg.LogLevel)
	setStr("ZLEVELS_LOG_FORMAT", "log_format", &cfg.LogFormat)
	if v := os.Getenv("ZLEVELS_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		cfg.Sources["log_timestamps"] = SourceEnv
	}
}

func boolFromString(v string) bool {
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
