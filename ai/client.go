package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/Popoeson/e-library/metrics"
)

// AI阶段名称，用于日志和指标
const (
	StageRewrite = "rewrite"
	StageScore   = "score"
	StageSummary = "summary"
)

var errNoModel = errors.New("llm not configured")

// Config LLM客户端配置
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration // 单次调用超时
	BatchSize int           // 每次打分请求包含的结果数
	Shuffle   bool          // 打乱摘要呈现顺序，id仍是原位置
}

// Client 基于OpenAI兼容接口的Assistant实现
// 所有方法在失败时都返回可用的回退值，调用方无需区分AI是否可用
type Client struct {
	gen    Generator
	cfg    Config
	logger *zap.Logger
}

// NewClient 创建客户端，未配置API key时所有调用直接走回退
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewClientWithGenerator(nil, cfg, logger), nil
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return NewClientWithGenerator(llm, cfg, logger), nil
}

// NewClientWithGenerator 使用指定的生成器创建客户端
func NewClientWithGenerator(gen Generator, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	return &Client{gen: gen, cfg: cfg, logger: logger.With(zap.String("component", "ai"))}
}

// Enabled 是否有可用的模型
func (c *Client) Enabled() bool {
	return c.gen != nil
}

// generate 单次调用，带超时并记录指标
func (c *Client) generate(ctx context.Context, stage, system, user string, options ...llms.CallOption) (string, error) {
	if c.gen == nil {
		return "", errNoModel
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	start := time.Now()
	resp, err := c.gen.GenerateContent(ctx, content, options...)
	if err == nil && (resp == nil || len(resp.Choices) == 0) {
		err = errors.New("no choices returned from model")
	}
	if err != nil {
		metrics.RecordAI(stage, metrics.OutcomeError, time.Since(start))
		return "", err
	}

	metrics.RecordAI(stage, metrics.OutcomeSuccess, time.Since(start))
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// Rewrite 改写查询，任何失败返回原查询
func (c *Client) Rewrite(ctx context.Context, query, subject string) string {
	if c.gen == nil {
		return query
	}

	raw, err := c.generate(ctx, StageRewrite, rewriteSystemPrompt, rewriteUserPrompt(query, subject),
		llms.WithTemperature(0), llms.WithMaxTokens(60))
	if err != nil {
		c.logger.Warn("query rewrite failed", zap.String("stage", StageRewrite), zap.Error(err))
		return query
	}

	rewritten, ok := cleanRewrite(raw)
	if !ok {
		c.logger.Warn("query rewrite output unusable",
			zap.String("stage", StageRewrite),
			zap.Int("length", len(raw)))
		return query
	}
	return rewritten
}

// Summarize 生成主题摘要，失败返回空字符串
func (c *Client) Summarize(ctx context.Context, query, subject string) string {
	if c.gen == nil {
		return ""
	}

	raw, err := c.generate(ctx, StageSummary, summarySystemPrompt, summaryUserPrompt(query, subject),
		llms.WithTemperature(0.2), llms.WithMaxTokens(160))
	if err != nil {
		c.logger.Warn("topic summary failed", zap.String("stage", StageSummary), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(stripFences(raw))
}
