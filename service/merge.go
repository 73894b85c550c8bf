package service

import (
	"sort"

	"github.com/Popoeson/e-library/model"
)

// laneOrder 合并时的车道顺序，先出现的结果在去重时胜出
var laneOrder = []model.Category{
	model.CategoryWeb,
	model.CategoryBooks,
	model.CategoryArchives,
	model.CategoryJournals,
	model.CategoryOthers,
}

func laneRank(c model.Category) int {
	for i, lane := range laneOrder {
		if lane == c {
			return i
		}
	}
	return len(laneOrder) - 1
}

// aggregation 单次请求内的合并状态，不跨请求共享
type aggregation struct {
	seen         map[string]struct{}
	merged       []model.SearchResult
	sourcesCount map[string]int
}

func newAggregation(capacity int) *aggregation {
	return &aggregation{
		seen:         make(map[string]struct{}, capacity),
		merged:       make([]model.SearchResult, 0, capacity),
		sourcesCount: make(map[string]int),
	}
}

// add 按顺序加入一个数据源的结果：记录原始数量，丢弃空键和重复键，写入车道分类
func (a *aggregation) add(batch model.ProviderBatch) {
	a.sourcesCount[batch.Provider] = len(batch.Results)

	lane := model.ParseCategory(string(batch.Lane))
	for _, r := range batch.Results {
		key := r.IdentityKey()
		if key == "" {
			continue
		}
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}

		r.Category = lane
		if r.Authors != nil {
			r.Authors = append([]string(nil), r.Authors...)
		} else {
			r.Authors = []string{}
		}
		if r.Score != nil {
			r = r.WithScore(*r.Score)
		}
		a.merged = append(a.merged, r)
	}
}

// orderBatches 按车道顺序稳定排序，车道内保持注册顺序
func orderBatches(batches []model.ProviderBatch) []model.ProviderBatch {
	ordered := make([]model.ProviderBatch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return laneRank(model.ParseCategory(string(ordered[i].Lane))) < laneRank(model.ParseCategory(string(ordered[j].Lane)))
	})
	return ordered
}

func aggregate(batches []model.ProviderBatch) *aggregation {
	total := 0
	for _, b := range batches {
		total += len(b.Results)
	}

	agg := newAggregation(total)
	for _, b := range orderBatches(batches) {
		agg.add(b)
	}
	return agg
}

// Merge 合并各数据源结果：按车道顺序拼接，按身份键去重（先到先得），写入车道分类
// 结果不依赖数据源完成的先后，对同一输入重复调用结果相同
func Merge(batches []model.ProviderBatch) []model.SearchResult {
	return aggregate(batches).merged
}
