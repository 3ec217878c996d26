package config

import (
	"strings"
	"testing"
	"time"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DatabaseURL != "project_planner.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.AuditInterval != time.Hour {
		t.Errorf("AuditInterval = %v", cfg.AuditInterval)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.BotRatePerSecond != 1 || cfg.BotRateBurst != 5 {
		t.Errorf("bot rate = %v/%d", cfg.BotRatePerSecond, cfg.BotRateBurst)
	}
	if err := cfg.RequireTelegram(); err == nil {
		t.Error("RequireTelegram succeeded without a token")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL":           "file:test.db",
		"TELEGRAM_TOKEN":         " token ",
		"HTTP_ADDR":              "127.0.0.1:9000",
		"AUDIT_INTERVAL_MINUTES": "0",
		"LOG_LEVEL":              "DEBUG",
		"LOG_FORMAT":             "json",
		"BOT_RATE_PER_SECOND":    "0.5",
		"BOT_RATE_BURST":         "2",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := Config{
		DatabaseURL:      "file:test.db",
		TelegramToken:    "token",
		HTTPAddr:         "127.0.0.1:9000",
		AuditInterval:    0,
		LogLevel:         "debug",
		LogFormat:        "json",
		BotRatePerSecond: 0.5,
		BotRateBurst:     2,
	}
	if cfg != want {
		t.Errorf("FromEnv = %+v, want %+v", cfg, want)
	}
	if err := cfg.RequireTelegram(); err != nil {
		t.Errorf("RequireTelegram: %v", err)
	}
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]struct {
		key, value string
	}{
		"log format":      {"LOG_FORMAT", "xml"},
		"audit interval":  {"AUDIT_INTERVAL_MINUTES", "-5"},
		"audit not a num": {"AUDIT_INTERVAL_MINUTES", "hourly"},
		"rate":            {"BOT_RATE_PER_SECOND", "0"},
		"burst":           {"BOT_RATE_BURST", "many"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(map[string]string{tc.key: tc.value}))
			if err == nil {
				t.Fatalf("%s=%q accepted", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Errorf("error %q does not name %s", err, tc.key)
			}
		})
	}
}
