package service

import (
	"github.com/Popoeson/e-library/model"
)

// Assemble 组装最终响应：五个分类桶固定存在且顺序固定，桶内保持排序结果的顺序
func Assemble(req model.SearchRequest, rewrittenQuery, summary string, ranked []model.SearchResult, sourcesCount map[string]int) model.SearchResponse {
	buckets := make(map[model.Category][]model.SearchResult, len(model.Categories))
	for _, c := range model.Categories {
		buckets[c] = []model.SearchResult{}
	}
	for _, r := range ranked {
		c := model.ParseCategory(string(r.Category))
		buckets[c] = append(buckets[c], r)
	}

	groups := make([]model.CategoryGroup, 0, len(model.Categories))
	for _, c := range model.Categories {
		groups = append(groups, model.CategoryGroup{Category: c, Results: buckets[c]})
	}

	counts := make(map[string]int, len(sourcesCount))
	for name, n := range sourcesCount {
		counts[name] = n
	}

	return model.SearchResponse{
		Status:         model.StatusSuccess,
		OriginalQuery:  req.Query,
		RewrittenQuery: rewrittenQuery,
		Subject:        req.Subject,
		Summary:        summary,
		ResultsCount:   len(ranked),
		SourcesCount:   counts,
		Results:        groups,
	}
}
