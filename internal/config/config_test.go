package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.APIURL)
	assert.Equal(t, "auto", cfg.Translate.SourceLanguage)
	assert.Equal(t, language.Chinese, cfg.Translate.TargetLanguage)
	assert.Equal(t, 4, cfg.Translate.MaxWorkers)
	assert.Equal(t, 1000, cfg.Translate.MaxChunkSize)
	assert.False(t, cfg.Translate.CleanupIntermediates)
	assert.Equal(t, []string{"/decks"}, cfg.Watch.DeckDirs)
	assert.Equal(t, "0 0 * * *", cfg.Watch.CronExpr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("SOURCE_LANG", "en")
	t.Setenv("TARGET_LANG", "fr")
	t.Setenv("MAX_WORKERS", "8")
	t.Setenv("MAX_CHUNK_SIZE", "500")
	t.Setenv("CLEANUP_INTERMEDIATES", "true")
	t.Setenv("DECK_DIRS", "/a, /b ,/c")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Translate.SourceLanguage)
	assert.Equal(t, language.French, cfg.Translate.TargetLanguage)
	assert.Equal(t, 8, cfg.Translate.MaxWorkers)
	assert.Equal(t, 500, cfg.Translate.MaxChunkSize)
	assert.True(t, cfg.Translate.CleanupIntermediates)
	assert.Equal(t, []string{"/a", "/b", "/c"}, cfg.Watch.DeckDirs)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewFromEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestNewFromEnv_RejectsBadTargetLang(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("TARGET_LANG", "not-a-language-tag!")

	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnv_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("MAX_WORKERS", "lots")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Translate.MaxWorkers)
}

func TestNewFromEnv_Options(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv(func(c *Config) {
		c.Translate.MaxWorkers = 1
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Translate.MaxWorkers)
}
