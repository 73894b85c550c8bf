package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Popoeson/e-library/ai"
	"github.com/Popoeson/e-library/metrics"
	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/util/pool"
)

// Options 搜索服务参数
type Options struct {
	DefaultLimit    int
	MaxLimit        int
	ProviderTimeout time.Duration // 单个数据源超时
	Deadline        time.Duration // 扇出阶段截止时间
	MinScore        float64       // 严格过滤阈值，0表示只排序
}

// SearchService 搜索服务
type SearchService struct {
	registry  *plugin.Registry
	assistant ai.Assistant
	pool      *pool.WorkerPool
	logger    *zap.Logger
	opts      Options
}

// NewSearchService 创建搜索服务实例
func NewSearchService(registry *plugin.Registry, assistant ai.Assistant, workers *pool.WorkerPool, logger *zap.Logger, opts Options) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = plugin.NewRegistry()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 15
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 50
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.Deadline <= 0 {
		opts.Deadline = 25 * time.Second
	}
	if workers == nil {
		// 未提供工作池时按插件数创建
		workers, _ = pool.NewWorkerPool(registry.Len() + 1)
	}

	return &SearchService{
		registry:  registry,
		assistant: assistant,
		pool:      workers,
		logger:    logger.With(zap.String("component", "search")),
		opts:      opts,
	}
}

// Registry 返回插件注册表
func (s *SearchService) Registry() *plugin.Registry {
	return s.registry
}

// Normalize 校验请求并补全默认值
func (s *SearchService) Normalize(req model.SearchRequest) (model.SearchRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, ErrInvalidQuery
	}

	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		req.Subject = model.DefaultSubject
	}

	if req.Limit <= 0 {
		req.Limit = s.opts.DefaultLimit
	}
	if req.Limit > s.opts.MaxLimit {
		req.Limit = s.opts.MaxLimit
	}
	return req, nil
}

// Search 执行一次完整的检索流水线
// 只有参数校验失败（ErrInvalidQuery）和内部错误（*InternalError）会返回给调用方
func (s *SearchService) Search(ctx context.Context, req model.SearchRequest) (resp model.SearchResponse, err error) {
	start := time.Now()
	defer func() {
		status := metrics.OutcomeSuccess
		if err != nil {
			status = metrics.OutcomeError
		}
		metrics.RecordSearch(status, resp.ResultsCount, time.Since(start))
	}()

	req, err = s.Normalize(req)
	if err != nil {
		return model.SearchResponse{}, err
	}

	logger := s.logger.With(zap.String("query", req.Query), zap.String("subject", req.Subject))

	// 1. 改写
	rewritten := s.rewrite(ctx, logger, req)

	// 2. 扇出
	batches := s.fanOut(ctx, rewritten, webQuery(rewritten, req.PreferPdf), req.Limit)

	// 3. 合并去重
	var agg *aggregation
	if err = runStage("merge", func() error {
		agg = aggregate(batches)
		return nil
	}); err != nil {
		logger.Error("search pipeline failed", zap.Error(err))
		return model.SearchResponse{}, err
	}

	// 4. 排序与摘要并行
	var (
		ranked  []model.SearchResult
		summary string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runStage("rank", func() error {
			ranked = rank(gctx, s.assistant, logger, rewritten, req.Subject, agg.merged)
			return nil
		})
	})
	g.Go(func() error {
		summary = s.summarize(ctx, logger, req)
		return nil
	})
	if err = g.Wait(); err != nil {
		logger.Error("search pipeline failed", zap.Error(err))
		return model.SearchResponse{}, err
	}

	// 5. 可选的严格过滤
	ranked = FilterByMinScore(ranked, s.opts.MinScore)

	// 6. 组装
	if err = runStage("assemble", func() error {
		resp = Assemble(req, rewritten, summary, ranked, agg.sourcesCount)
		return nil
	}); err != nil {
		logger.Error("search pipeline failed", zap.Error(err))
		return model.SearchResponse{}, err
	}

	logger.Info("search completed",
		zap.String("rewritten", rewritten),
		zap.Int("providers", len(batches)),
		zap.Int("results", resp.ResultsCount),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// rewrite 调用改写器，panic同样回退到原查询
func (s *SearchService) rewrite(ctx context.Context, logger *zap.Logger, req model.SearchRequest) (rewritten string) {
	rewritten = req.Query
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("query rewrite panicked", zap.String("stage", "rewrite"), zap.Any("panic", r))
			rewritten = req.Query
		}
	}()

	if out := strings.TrimSpace(s.assistant.Rewrite(ctx, req.Query, req.Subject)); out != "" {
		rewritten = out
	}
	return rewritten
}

// summarize 调用摘要器，失败或panic返回空字符串
func (s *SearchService) summarize(ctx context.Context, logger *zap.Logger, req model.SearchRequest) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("topic summary panicked", zap.String("stage", "summary"), zap.Any("panic", r))
			summary = ""
		}
	}()
	return s.assistant.Summarize(ctx, req.Query, req.Subject)
}

// IsValidationError 是否为参数校验错误
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}
