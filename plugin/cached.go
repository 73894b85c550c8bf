package plugin

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/util/cache"
)

// cachedPlugin 为插件增加结果缓存，只缓存成功的结果
type cachedPlugin struct {
	SearchPlugin
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// WithCache 用缓存包装插件，store为nil时原样返回
func WithCache(p SearchPlugin, store cache.Store, ttl time.Duration, logger *zap.Logger) SearchPlugin {
	if store == nil || p == nil {
		return p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedPlugin{SearchPlugin: p, store: store, ttl: ttl, logger: logger}
}

// Search 先查缓存，未命中时调用原插件
func (c *cachedPlugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	key := cache.GenerateCacheKey(c.Name(), query, map[string]string{"limit": strconv.Itoa(limit)})

	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Debug("cache read failed", zap.String("provider", c.Name()), zap.Error(err))
	} else if ok {
		var results []model.SearchResult
		if err := cache.DeserializeWithPool(data, &results); err == nil {
			return results, nil
		}
	}

	results, err := c.SearchPlugin.Search(ctx, query, limit)
	if err != nil || len(results) == 0 {
		return results, err
	}

	if data, err := cache.SerializeWithPool(results); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Debug("cache write failed", zap.String("provider", c.Name()), zap.Error(err))
		}
	}
	return results, nil
}
