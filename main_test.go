package main

import (
	"os"
	"testing"

	"github.com/Mhsaeedi07/BriefBot/internal/config"
)

// withEnv sets env vars for the duration of a test and restores the previous
// values afterwards.
func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	keys := []string{
		"TELEGRAM_BOT_TOKEN",
		"GEMINI_API_KEY",
		"RETENTION_DAYS",
		"CLEANUP_CRON",
	}

	original := make(map[string]string)
	for _, k := range keys {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range keys {
			if v, exists := original[k]; exists && v != "" {
				os.Setenv(k, v)
			} else {
				os.Unsetenv(k)
			}
		}
	})

	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func TestMain_ValidConfig(t *testing.T) {
	withEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11",
		"GEMINI_API_KEY":     "test-api-key",
	})

	cfg, err := config.Load()
	if err != nil {
		t.Errorf("Expected config load to succeed with valid env vars, but got error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config to be non-nil")
	}
	if cfg.RetentionDays != config.DefaultRetentionDays {
		t.Errorf("Expected default retention of %d days, got %d", config.DefaultRetentionDays, cfg.RetentionDays)
	}
}

func TestMain_MissingBotToken(t *testing.T) {
	withEnv(t, map[string]string{
		"GEMINI_API_KEY": "test-api-key",
	})

	if _, err := config.Load(); err == nil {
		t.Error("Expected config load to fail without TELEGRAM_BOT_TOKEN")
	}
}

func TestMain_MissingGeminiKey(t *testing.T) {
	withEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11",
	})

	if _, err := config.Load(); err == nil {
		t.Error("Expected config load to fail without GEMINI_API_KEY")
	}
}

func TestMain_InvalidRetentionDays(t *testing.T) {
	withEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11",
		"GEMINI_API_KEY":     "test-api-key",
		"RETENTION_DAYS":     "-5",
	})

	if _, err := config.Load(); err == nil {
		t.Error("Expected config load to fail with negative RETENTION_DAYS")
	}
}
