package model

import (
	"time"
)

// ProviderBatch 单次请求中某个数据源调用的最终结果
type ProviderBatch struct {
	Provider string         `json:"provider"`
	Lane     Category       `json:"lane"`
	Results  []SearchResult `json:"results"`
	Err      error          `json:"-"`
	Elapsed  time.Duration  `json:"elapsed"`
}

// Count 返回结果数量
func (b *ProviderBatch) Count() int {
	return len(b.Results)
}

// Failed 数据源调用是否以（已被吸收的）失败结束
func (b *ProviderBatch) Failed() bool {
	return b.Err != nil
}
