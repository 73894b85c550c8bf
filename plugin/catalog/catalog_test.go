package catalog

import (
	"net/http"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Popoeson/e-library/config"
	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/util/cache"
)

func loadConfig(t *testing.T, values map[string]interface{}) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return config.Load(v)
}

func TestBuildSkipsUnconfiguredProviders(t *testing.T) {
	cfg := loadConfig(t, nil)
	registry := Build(cfg, http.DefaultClient, nil, zap.NewNop())

	assert.Equal(t, []string{"googlebooks", "openlibrary", "internetarchive", "arxiv", "crossref", "oercommons"}, registry.Names())

	byLane := registry.ByLane()
	assert.Empty(t, byLane[model.CategoryWeb])
	assert.Equal(t, []string{"arxiv", "crossref"}, byLane[model.CategoryJournals])
}

func TestBuildRegistersConfiguredWebProviders(t *testing.T) {
	cfg := loadConfig(t, map[string]interface{}{
		"brave_api_key":     "b",
		"brave_search_url":  "https://brave.local",
		"searxng_url":       "https://searx.local",
		"serper_api_key":    "s",
		"serpstack_api_key": "k",
	})
	registry := Build(cfg, http.DefaultClient, nil, nil)

	assert.Equal(t, 10, registry.Len())
	assert.Equal(t, []string{"brave", "searxng", "serper", "serpstack"}, registry.ByLane()[model.CategoryWeb])
}

func TestBuildHonoursEnabledProviders(t *testing.T) {
	cfg := loadConfig(t, map[string]interface{}{"enabled_providers": "crossref,arxiv"})
	registry := Build(cfg, http.DefaultClient, cache.NewMemoryCache(10, 1), zap.NewNop())

	assert.Equal(t, []string{"arxiv", "crossref"}, registry.Names())
	lane, ok := registry.LaneOf("arxiv")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryJournals, lane)
}
