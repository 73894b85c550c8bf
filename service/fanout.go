package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Popoeson/e-library/metrics"
	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/util/pool"
)

// pdfFilter preferPdf时追加到网页车道查询
const pdfFilter = "filetype:pdf"

// webQuery 网页车道使用的查询
func webQuery(query string, preferPdf bool) string {
	if !preferPdf {
		return query
	}
	return query + " " + pdfFilter
}

// fanOut 在共享工作池上并发调用全部插件并等待全部结束
// 单个插件失败不影响其他插件；截止时间到达时未完成的插件记为失败的空结果
// 返回的批次与注册顺序一致，每个插件恰好一个批次
func (s *SearchService) fanOut(ctx context.Context, query, webLaneQuery string, limit int) []model.ProviderBatch {
	plugins := s.registry.Plugins()
	if len(plugins) == 0 {
		return []model.ProviderBatch{}
	}

	tasks := make([]pool.Task[model.ProviderBatch], len(plugins))
	for i, p := range plugins {
		p := p
		q := query
		if lane, _ := s.registry.LaneOf(p.Name()); lane == model.CategoryWeb {
			q = webLaneQuery
		}
		tasks[i] = func(ctx context.Context) model.ProviderBatch {
			return plugin.SafeSearch(ctx, p, q, limit, s.opts.ProviderTimeout, s.logger)
		}
	}

	results, done := pool.ExecuteBatchWithTimeout(ctx, s.pool, tasks, s.opts.Deadline)

	batches := make([]model.ProviderBatch, len(plugins))
	for i, p := range plugins {
		if done[i] {
			batches[i] = results[i]
			continue
		}

		lane, _ := s.registry.LaneOf(p.Name())
		batches[i] = model.ProviderBatch{
			Provider: p.Name(),
			Lane:     lane,
			Results:  []model.SearchResult{},
			Err:      fmt.Errorf("provider unresolved at search deadline"),
		}
		s.logger.Warn("provider unresolved at search deadline",
			zap.String("provider", p.Name()),
			zap.Duration("deadline", s.opts.Deadline))
		metrics.RecordProvider(p.Name(), metrics.OutcomeTimeout, 0, s.opts.Deadline)
	}
	return batches
}
