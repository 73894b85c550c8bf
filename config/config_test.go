package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaults() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load(newDefaults())

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, 15, cfg.DefaultLimit)
	assert.Equal(t, 50, cfg.MaxLimit)
	assert.Equal(t, 10*time.Second, cfg.PluginTimeout)
	assert.Equal(t, 25*time.Second, cfg.SearchDeadline)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLMBaseURL)
	assert.Equal(t, DefaultLLMModel, cfg.LLMModel)
	assert.False(t, cfg.LLMEnabled())
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Zero(t, cfg.RelevanceMinScore)
	assert.Empty(t, cfg.EnabledProviders)
	assert.GreaterOrEqual(t, cfg.HTTPWriteTimeout, cfg.SearchDeadline)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_LIMIT", "80")
	t.Setenv("MAX_LIMIT", "30")
	t.Setenv("ENABLED_PROVIDERS", "arxiv, Crossref,,brave")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("RELEVANCE_MIN_SCORE", "150")
	t.Setenv("PLUGIN_TIMEOUT", "3")
	t.Setenv("CONCURRENCY", "7")

	v, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Nil(t, v)

	v, err = NewViper("")
	require.NoError(t, err)
	cfg := Load(v)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30, cfg.MaxLimit)
	assert.Equal(t, 30, cfg.DefaultLimit)
	assert.Equal(t, []string{"arxiv", "crossref", "brave"}, cfg.EnabledProviders)
	assert.Equal(t, "gsk-test", cfg.LLMAPIKey)
	assert.True(t, cfg.LLMEnabled())
	assert.Equal(t, float64(100), cfg.RelevanceMinScore)
	assert.Equal(t, 3*time.Second, cfg.PluginTimeout)

	cfg.UpdateDefaultConcurrency(10)
	assert.Equal(t, 7, cfg.DefaultConcurrency)
}

func TestLLMAPIKeyTakesPrecedence(t *testing.T) {
	t.Setenv("LLM_API_KEY", "primary")
	t.Setenv("GROQ_API_KEY", "alias")

	v, err := NewViper("")
	require.NoError(t, err)
	assert.Equal(t, "primary", Load(v).LLMAPIKey)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elibrary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nsearxng_url: http://searx.local\ncache_enabled: true\n"), 0o600))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg := Load(v)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "http://searx.local", cfg.SearxngURL)
	assert.True(t, cfg.CacheEnabled)
}

func TestUpdateDefaultConcurrency(t *testing.T) {
	cfg := Load(newDefaults())
	cfg.UpdateDefaultConcurrency(10)
	assert.Equal(t, 12, cfg.DefaultConcurrency)

	var nilCfg *Config
	assert.NotPanics(t, func() { nilCfg.UpdateDefaultConcurrency(3) })
}
