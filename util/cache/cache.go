package cache

import (
	"context"
	"time"
)

// Store 提供者结果缓存的存储接口
type Store interface {
	// Get 读取缓存，未命中时返回false
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set 写入缓存
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}
