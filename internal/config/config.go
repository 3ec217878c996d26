package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL      string
	TelegramToken    string
	HTTPAddr         string
	AuditInterval    time.Duration
	LogLevel         string
	LogFormat        string
	BotRatePerSecond float64
	BotRateBurst     int
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		DatabaseURL:   get("DATABASE_URL"),
		TelegramToken: get("TELEGRAM_TOKEN"),
		HTTPAddr:      get("HTTP_ADDR"),
		LogLevel:      strings.ToLower(get("LOG_LEVEL")),
		LogFormat:     strings.ToLower(get("LOG_FORMAT")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "project_planner.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return cfg, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	interval, err := parseMinutes(get("AUDIT_INTERVAL_MINUTES"), 60)
	if err != nil {
		return cfg, fmt.Errorf("AUDIT_INTERVAL_MINUTES: %w", err)
	}
	cfg.AuditInterval = interval

	cfg.BotRatePerSecond = 1
	if raw := get("BOT_RATE_PER_SECOND"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			return cfg, fmt.Errorf("BOT_RATE_PER_SECOND must be a positive number, got %q", raw)
		}
		cfg.BotRatePerSecond = rate
	}

	cfg.BotRateBurst = 5
	if raw := get("BOT_RATE_BURST"); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return cfg, fmt.Errorf("BOT_RATE_BURST must be a positive integer, got %q", raw)
		}
		cfg.BotRateBurst = burst
	}

	return cfg, nil
}

// RequireTelegram reports an error when the bot token is missing.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// parseMinutes returns def minutes for an empty value and zero for "0",
// which disables the schedule.
func parseMinutes(raw string, def int) (time.Duration, error) {
	if raw == "" {
		return time.Duration(def) * time.Minute, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("expected a non-negative number of minutes, got %q", raw)
	}
	return time.Duration(minutes) * time.Minute, nil
}
