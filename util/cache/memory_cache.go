package cache

import (
	"context"
	"sync"
	"time"
)

// 内存缓存项
type memoryCacheItem struct {
	data     []byte
	expiry   time.Time
	lastUsed time.Time
	size     int
}

// MemoryCache 带TTL的LRU内存缓存
type MemoryCache struct {
	items    map[string]*memoryCacheItem
	mutex    sync.RWMutex
	maxItems int
	maxSize  int64
	currSize int64
	now      func() time.Time
}

// NewMemoryCache 创建新的内存缓存
func NewMemoryCache(maxItems int, maxSizeMB int) *MemoryCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 64
	}
	return &MemoryCache{
		items:    make(map[string]*memoryCacheItem),
		maxItems: maxItems,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		now:      time.Now,
	}
}

// Set 设置缓存，数据会被复制
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// 如果已存在，先移除旧项
	if item, exists := c.items[key]; exists {
		c.currSize -= int64(item.size)
		delete(c.items, key)
	}

	for len(c.items) > 0 && (len(c.items) >= c.maxItems || c.currSize+int64(len(data)) > c.maxSize) {
		c.evict()
	}

	now := c.now()
	c.items[key] = &memoryCacheItem{
		data:     append([]byte(nil), data...),
		expiry:   now.Add(ttl),
		lastUsed: now,
		size:     len(data),
	}
	c.currSize += int64(len(data))
	return nil
}

// Get 获取缓存
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false, nil
	}

	now := c.now()
	if now.After(item.expiry) {
		delete(c.items, key)
		c.currSize -= int64(item.size)
		return nil, false, nil
	}

	item.lastUsed = now
	return append([]byte(nil), item.data...), true, nil
}

// Len 当前缓存项数量
func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// 驱逐策略 - LRU，调用方持有写锁
func (c *MemoryCache) evict() {
	var oldestKey string
	var oldestTime time.Time

	for k, v := range c.items {
		if oldestKey == "" || v.lastUsed.Before(oldestTime) {
			oldestKey = k
			oldestTime = v.lastUsed
		}
	}

	if oldestKey != "" {
		c.currSize -= int64(c.items[oldestKey].size)
		delete(c.items, oldestKey)
	}
}

// CleanExpired 清理过期项
func (c *MemoryCache) CleanExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for k, v := range c.items {
		if now.After(v.expiry) {
			c.currSize -= int64(v.size)
			delete(c.items, k)
		}
	}
}

// StartCleanupTask 启动定期清理，ctx结束时退出
func (c *MemoryCache) StartCleanupTask(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}
