package ai

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/Popoeson/e-library/model"
)

// NeutralScore AI打分不可用时的统一回退分数
const NeutralScore = 50.0

// 分数范围
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Rewriter 将自然语言查询改写为学术检索用语，失败时返回原查询
type Rewriter interface {
	Rewrite(ctx context.Context, query, subject string) string
}

// Scorer 为结果打0-100的相关性分数，返回与输入等长、顺序一致的带分副本
type Scorer interface {
	Score(ctx context.Context, query, subject string, results []model.SearchResult) []model.SearchResult
}

// Summarizer 生成2-4句的主题摘要，失败时返回空字符串
type Summarizer interface {
	Summarize(ctx context.Context, query, subject string) string
}

// Assistant 流水线使用的全部AI能力
type Assistant interface {
	Rewriter
	Scorer
	Summarizer
}

// Generator 聊天补全接口，langchaingo的llms.Model满足此接口
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}
