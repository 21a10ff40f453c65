package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/MimeLyc/slide-translator/internal/provider"
	"github.com/MimeLyc/slide-translator/pkg/log"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-4o-mini)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 60)
// - LLM_SITE_URL: Site URL for HTTP referer header (optional)
// - LLM_APP_NAME: Application name for X-Title header (optional)
//
// Translate Configuration:
// - SOURCE_LANG: Source language, or "auto" to detect (default: auto)
// - TARGET_LANG: Target language tag, e.g. "zh", "fr" (default: zh)
// - MAX_WORKERS: Concurrent slide workers (default: 4)
// - MAX_CHUNK_SIZE: Max characters per translation request (default: 1000)
// - CACHE_FILE: Translation cache path (default: translation_cache.json)
// - CLEANUP_INTERMEDIATES: Remove XML checkpoints on success (default: false)
//
// Watch Configuration:
// - DECK_DIRS: Comma-separated directories to scan (default: /decks)
// - CRON_EXPR: Scan schedule (default: 0 0 * * *)
// - LEDGER_DB: Processed-document database path (default: ledger.db)
//
// System Configuration:
// - LOG_LEVEL: debug, info, warn or error (default: info)

type Config struct {
	// LLM Configuration
	LLM provider.Config `json:"llm"`

	// Translate Configuration
	Translate TranslateConfig `json:"translate"`

	// Watch Configuration
	Watch WatchConfig `json:"watch"`

	// Log level name
	LogLevel string `json:"log_level"`
}

type TranslateConfig struct {
	SourceLanguage       string       `json:"source_language"`
	TargetLanguage       language.Tag `json:"target_language"`
	MaxWorkers           int          `json:"max_workers"`
	MaxChunkSize         int          `json:"max_chunk_size"`
	CacheFile            string       `json:"cache_file"`
	CleanupIntermediates bool         `json:"cleanup_intermediates"`
}

// WatchConfig holds the configuration for the scheduled directory scanner
type WatchConfig struct {
	DeckDirs []string `json:"deck_dirs"`
	CronExpr string   `json:"cron_expr"`
	LedgerDB string   `json:"ledger_db"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	targetLang, err := language.Parse(getEnvString("TARGET_LANG", "zh"))
	if err != nil {
		return nil, fmt.Errorf("invalid TARGET_LANG: %w", err)
	}

	config := &Config{
		LLM: provider.Config{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-4o-mini"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			Timeout:     getEnvInt("LLM_TIMEOUT", 60),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		Translate: TranslateConfig{
			SourceLanguage:       getEnvString("SOURCE_LANG", "auto"),
			TargetLanguage:       targetLang,
			MaxWorkers:           getEnvInt("MAX_WORKERS", 4),
			MaxChunkSize:         getEnvInt("MAX_CHUNK_SIZE", 1000),
			CacheFile:            getEnvString("CACHE_FILE", "translation_cache.json"),
			CleanupIntermediates: getEnvBool("CLEANUP_INTERMEDIATES", false),
		},
		Watch: WatchConfig{
			DeckDirs: splitDirs(getEnvString("DECK_DIRS", "/decks")),
			CronExpr: getEnvString("CRON_EXPR", "0 0 * * *"),
			LedgerDB: getEnvString("LEDGER_DB", "ledger.db"),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	log.Debug("Config: %v", config)

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Translate.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1")
	}
	if c.Translate.MaxChunkSize < 1 {
		return fmt.Errorf("MAX_CHUNK_SIZE must be at least 1")
	}
	return nil
}

func splitDirs(value string) []string {
	var dirs []string
	for _, dir := range strings.Split(value, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
