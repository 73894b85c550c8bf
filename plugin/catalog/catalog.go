package catalog

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Popoeson/e-library/config"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/plugin/arxiv"
	"github.com/Popoeson/e-library/plugin/brave"
	"github.com/Popoeson/e-library/plugin/crossref"
	"github.com/Popoeson/e-library/plugin/googlebooks"
	"github.com/Popoeson/e-library/plugin/internetarchive"
	"github.com/Popoeson/e-library/plugin/oercommons"
	"github.com/Popoeson/e-library/plugin/openlibrary"
	"github.com/Popoeson/e-library/plugin/searxng"
	"github.com/Popoeson/e-library/plugin/serper"
	"github.com/Popoeson/e-library/plugin/serpstack"
	"github.com/Popoeson/e-library/util/cache"
)

// Build 根据配置构建插件注册表
// 缺少凭据或地址的数据源不注册，只在启动时记录一次
func Build(cfg *config.Config, client *http.Client, store cache.Store, logger *zap.Logger) *plugin.Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []plugin.Option{
		plugin.WithHTTPClient(client),
		plugin.WithRateLimit(cfg.ProviderRPS),
	}

	skip := func(name, reason string) {
		logger.Info("provider not registered", zap.String("provider", name), zap.String("reason", reason))
	}

	var plugins []plugin.SearchPlugin

	// Web
	if cfg.BraveAPIKey != "" && cfg.BraveSearchURL != "" {
		plugins = append(plugins, brave.New(cfg.BraveAPIKey, cfg.BraveSearchURL, opts...))
	} else {
		skip(brave.Name, "BRAVE_API_KEY or BRAVE_SEARCH_URL not set")
	}
	if cfg.SearxngURL != "" {
		plugins = append(plugins, searxng.New(cfg.SearxngURL, opts...))
	} else {
		skip(searxng.Name, "SEARXNG_URL not set")
	}
	if cfg.SerperAPIKey != "" {
		plugins = append(plugins, serper.New(cfg.SerperAPIKey, opts...))
	} else {
		skip(serper.Name, "SERPER_API_KEY not set")
	}
	if cfg.SerpstackAPIKey != "" {
		plugins = append(plugins, serpstack.New(cfg.SerpstackAPIKey, opts...))
	} else {
		skip(serpstack.Name, "SERPSTACK_API_KEY not set")
	}

	// Books
	plugins = append(plugins,
		googlebooks.New(cfg.GoogleAPIKey, opts...),
		openlibrary.New(opts...),
	)

	// Archives
	plugins = append(plugins, internetarchive.New(opts...))

	// Journals
	plugins = append(plugins,
		arxiv.New(opts...),
		crossref.New(cfg.ContactEmail, opts...),
	)

	// Others
	plugins = append(plugins, oercommons.New(opts...))

	if store != nil {
		for i, p := range plugins {
			plugins[i] = plugin.WithCache(p, store, cfg.CacheTTL, logger)
		}
	}

	registry := plugin.NewRegistry(plugins...).FilterByNames(cfg.EnabledProviders)
	logger.Info("provider registry built",
		zap.Strings("providers", registry.Names()),
		zap.Int("count", registry.Len()))
	return registry
}
