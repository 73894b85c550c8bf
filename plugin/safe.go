package plugin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Popoeson/e-library/metrics"
	"github.com/Popoeson/e-library/model"
)

type searchOutcome struct {
	results  []model.SearchResult
	err      error
	panicked bool
}

// SafeSearch 在超时和panic保护下调用插件
// 任何失败都被吸收为空结果并记录Warn日志，返回的Results永不为nil
// 插件不响应ctx时也会在超时后返回，迟到的结果被丢弃
func SafeSearch(ctx context.Context, p SearchPlugin, query string, limit int, timeout time.Duration, logger *zap.Logger) model.ProviderBatch {
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	batch := model.ProviderBatch{
		Provider: p.Name(),
		Lane:     model.ParseCategory(string(p.Lane())),
		Results:  []model.SearchResult{},
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outcomeChan := make(chan searchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcomeChan <- searchOutcome{err: fmt.Errorf("provider panicked: %v", r), panicked: true}
			}
		}()
		results, err := p.Search(ctx, query, limit)
		outcomeChan <- searchOutcome{results: results, err: err}
	}()

	outcome := metrics.OutcomeSuccess
	select {
	case o := <-outcomeChan:
		switch {
		case o.panicked:
			batch.Err = o.err
			outcome = metrics.OutcomePanic
		case o.err != nil:
			batch.Err = o.err
			outcome = metrics.OutcomeError
			if errors.Is(o.err, context.DeadlineExceeded) {
				outcome = metrics.OutcomeTimeout
			}
		case len(o.results) == 0:
			outcome = metrics.OutcomeEmpty
		default:
			batch.Results = o.results
		}
	case <-ctx.Done():
		batch.Err = fmt.Errorf("provider did not finish: %w", ctx.Err())
		outcome = metrics.OutcomeTimeout
	}

	batch.Elapsed = time.Since(start)
	if batch.Failed() {
		logger.Warn("provider search failed",
			zap.String("provider", batch.Provider),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", batch.Elapsed),
			zap.Error(batch.Err))
	}
	metrics.RecordProvider(batch.Provider, outcome, batch.Count(), batch.Elapsed)

	return batch
}
