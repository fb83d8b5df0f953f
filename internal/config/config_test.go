package config

import (
	"log/slog"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS", "SERVER_WRITE_TIMEOUT_SECONDS", "SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL", "LOG_FORMAT",
		"DATABASE_URL", "ENGINE_URL", "ENGINE_TIMEOUT_SECONDS",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Engine.URL != "" {
		t.Errorf("expected empty engine URL, got %q", cfg.Engine.URL)
	}
	if cfg.Engine.Timeout != defaultEngineTimeout {
		t.Errorf("expected default engine timeout %v, got %v", defaultEngineTimeout, cfg.Engine.Timeout)
	}
	if cfg.OpenAI.Model != defaultOpenAIModel {
		t.Errorf("expected default OpenAI model %q, got %q", defaultOpenAIModel, cfg.OpenAI.Model)
	}
	if cfg.RateLimit.RequestsPerSecond != defaultRateLimitRPS {
		t.Errorf("expected default rate limit %v, got %v", defaultRateLimitRPS, cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.RateLimit.Burst != defaultRateLimitBurst {
		t.Errorf("expected default burst %d, got %d", defaultRateLimitBurst, cfg.RateLimit.Burst)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                 "9090",
		"SERVER_READ_TIMEOUT_SECONDS": "30",
		"LOG_LEVEL":                   "debug",
		"LOG_FORMAT":                  "text",
		"DATABASE_URL":                "postgres://localhost/prophetd",
		"ENGINE_URL":                  "http://engine:9000",
		"ENGINE_TIMEOUT_SECONDS":      "90",
		"RATE_LIMIT_RPS":              "2.5",
		"RATE_LIMIT_BURST":            "5",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout 30s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Logging.Format)
	}
	if cfg.Database.URL != "postgres://localhost/prophetd" {
		t.Errorf("unexpected database URL %q", cfg.Database.URL)
	}
	if cfg.Engine.URL != "http://engine:9000" {
		t.Errorf("unexpected engine URL %q", cfg.Engine.URL)
	}
	if cfg.Engine.Timeout != 90*time.Second {
		t.Errorf("expected engine timeout 90s, got %v", cfg.Engine.Timeout)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("expected rate limit 2.5, got %v", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.RateLimit.Burst != 5 {
		t.Errorf("expected burst 5, got %d", cfg.RateLimit.Burst)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", "not-a-number"},
		{"SERVER_READ_TIMEOUT_SECONDS", "-5"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "xml"},
		{"RATE_LIMIT_RPS", "0"},
		{"RATE_LIMIT_BURST", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() succeeded with %s=%s, want error", tt.key, tt.value)
			}
		})
	}
}
