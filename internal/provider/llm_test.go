package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{
		APIKey:      "test-key",
		APIURL:      url,
		Model:       "test/model",
		MaxTokens:   1000,
		Temperature: 0.3,
		Timeout:     5,
		SiteURL:     "https://example.com",
		AppName:     "slide-translator",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "valid", mutate: func(*Config) {}, valid: true},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }},
		{name: "missing url", mutate: func(c *Config) { c.APIURL = "" }},
		{name: "missing model", mutate: func(c *Config) { c.Model = "" }},
		{name: "zero max tokens", mutate: func(c *Config) { c.MaxTokens = 0 }},
		{name: "temperature out of range", mutate: func(c *Config) { c.Temperature = 3 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("https://api.example.com/v1")
			tt.mutate(&cfg)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestNewLLM_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("https://api.example.com/v1")
	cfg.APIKey = ""

	_, err := NewLLM(cfg)
	assert.Error(t, err)
}

func TestTranslate_RequestAndResponse(t *testing.T) {
	var gotPath, gotAuth, gotReferer, gotTitle string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Bonjour  "}},
			},
		})
	}))
	defer server.Close()

	p, err := NewLLM(testConfig(server.URL))
	require.NoError(t, err)

	got, err := p.Translate(context.Background(), "Hello", "en", "fr")
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", got)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "https://example.com", gotReferer)
	assert.Equal(t, "slide-translator", gotTitle)

	assert.Equal(t, "test/model", gotBody["model"])
	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 2)
	system := messages[0].(map[string]interface{})
	assert.Equal(t, "system", system["role"])
	assert.Contains(t, system["content"], "from en to fr")
	user := messages[1].(map[string]interface{})
	assert.Equal(t, "Hello", user["content"])
}

func TestTranslate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 429, "message": "rate limited"},
		})
	}))
	defer server.Close()

	p, err := NewLLM(testConfig(server.URL))
	require.NoError(t, err)

	_, err = p.Translate(context.Background(), "Hello", "en", "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestTranslate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	p, err := NewLLM(testConfig(server.URL))
	require.NoError(t, err)

	_, err = p.Translate(context.Background(), "Hello", "en", "fr")
	assert.Error(t, err)
}

func TestTranslate_TrailingSlashInURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer server.Close()

	p, err := NewLLM(testConfig(server.URL + "/"))
	require.NoError(t, err)

	_, err = p.Translate(context.Background(), "Hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "/chat/completions", gotPath)
}
