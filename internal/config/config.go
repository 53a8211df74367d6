package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramBotToken string
	GeminiAPIKey     string
	GeminiModel      string

	// Fallback OpenAI-compatible provider (e.g. Deepseek)
	LLMProvider string
	LLMEndpoint string
	LLMToken    string
	LLMModel    string

	PostgreDSN string
	DataDir    string
	LogLevel   string
	OpsPort    string

	RetentionDays int
	CleanupCron   string
}

const (
	DefaultRetentionDays = 30
	DefaultGeminiModel   = "gemini-2.0-flash"

	// Once a day, matching the original 24-hour sweep cadence.
	DefaultCleanupCron = "0 2 * * *"
)

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		LLMProvider:      os.Getenv("LLM_PROVIDER"),
		LLMEndpoint:      os.Getenv("LLM_ENDPOINT"),
		LLMToken:         os.Getenv("LLM_TOKEN"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		PostgreDSN:       os.Getenv("POSTGRE_DSN"),
		DataDir:          getEnvOrDefault("DATA_DIR", "data"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		OpsPort:          getEnvOrDefault("OPS_PORT", "8080"),
		CleanupCron:      getEnvOrDefault("CLEANUP_CRON", DefaultCleanupCron),
	}

	days := os.Getenv("RETENTION_DAYS")
	if days == "" {
		cfg.RetentionDays = DefaultRetentionDays
	} else {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RETENTION_DAYS %q: must be a positive integer", days)
		}
		cfg.RetentionDays = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"TELEGRAM_BOT_TOKEN": c.TelegramBotToken,
		"GEMINI_API_KEY":     c.GeminiAPIKey,
	}

	for key, value := range required {
		if value == "" {
			return fmt.Errorf("required environment variable %s is not set", key)
		}
	}

	if !gronx.IsValid(c.CleanupCron) {
		return fmt.Errorf("invalid CLEANUP_CRON expression: %s", c.CleanupCron)
	}

	return nil
}

// RetentionWindow returns the retention duration for stored messages.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// HasFallbackLLMConfig reports whether an OpenAI-compatible fallback provider
// is fully configured.
func (c *Config) HasFallbackLLMConfig() bool {
	return c.LLMProvider != "" && c.LLMEndpoint != "" && c.LLMToken != "" && c.LLMModel != ""
}

func (c *Config) HasDatabaseConfig() bool {
	return c.PostgreDSN != ""
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
