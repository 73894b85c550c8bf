package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Popoeson/e-library/ai"
	"github.com/Popoeson/e-library/model"
)

// rank 打分并按分数降序稳定排序，同分保持合并顺序
// 打分器panic或返回的数量不一致时所有结果使用中性分
func rank(ctx context.Context, scorer ai.Scorer, logger *zap.Logger, query, subject string, merged []model.SearchResult) []model.SearchResult {
	if len(merged) == 0 {
		return []model.SearchResult{}
	}

	scored := safeScore(ctx, scorer, logger, query, subject, merged)
	if len(scored) != len(merged) {
		scored = make([]model.SearchResult, len(merged))
		for i, r := range merged {
			scored[i] = r.WithScore(ai.NeutralScore)
		}
	}

	for i, r := range scored {
		if !r.HasScore() {
			scored[i] = r.WithScore(ai.NeutralScore)
		} else {
			scored[i] = r.WithScore(ai.ClampScore(r.ScoreValue()))
		}
	}

	SortByScore(scored)
	return scored
}

// safeScore 调用打分器，panic时返回nil并记录Warn
func safeScore(ctx context.Context, scorer ai.Scorer, logger *zap.Logger, query, subject string, merged []model.SearchResult) (scored []model.SearchResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("relevance scoring panicked, using neutral scores",
				zap.String("stage", ai.StageScore),
				zap.Any("panic", r))
			scored = nil
		}
	}()
	return scorer.Score(ctx, query, subject, merged)
}

// SortByScore 按分数降序稳定排序
func SortByScore(results []model.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ScoreValue() > results[j].ScoreValue()
	})
}

// FilterByMinScore 严格过滤阶段：只保留分数不低于阈值的结果，阈值<=0时不过滤
func FilterByMinScore(results []model.SearchResult, minScore float64) []model.SearchResult {
	if minScore <= 0 {
		return results
	}
	kept := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		if r.ScoreValue() >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}
