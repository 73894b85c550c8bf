package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// GenerateCacheKey 根据提供者、查询和参数生成缓存键
func GenerateCacheKey(provider, query string, params map[string]string) string {
	keyStr := provider + "|" + strings.ToLower(strings.TrimSpace(query))

	// 按字母顺序排序参数键，确保相同的参数集合总是产生相同的键
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		keyStr += "|" + k + "=" + params[k]
	}

	hash := md5.Sum([]byte(keyStr))
	return provider + ":" + hex.EncodeToString(hash[:])
}
