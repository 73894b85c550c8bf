package plugin

import (
	"context"
	"strings"

	"github.com/Popoeson/e-library/model"
)

// SearchPlugin 数据源适配器接口
type SearchPlugin interface {
	// Name 返回数据源名称，同时作为sourcesCount的键
	Name() string

	// Lane 返回数据源所属车道，注册后固定
	Lane() model.Category

	// Search 执行一次搜索，返回规范化结果
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// Registry 启动时构建的只读插件注册表，保持注册顺序
type Registry struct {
	plugins []SearchPlugin
	lanes   map[string]model.Category
}

// NewRegistry 创建注册表，重名插件只保留第一个，nil和空名称被忽略
func NewRegistry(plugins ...SearchPlugin) *Registry {
	r := &Registry{
		plugins: make([]SearchPlugin, 0, len(plugins)),
		lanes:   make(map[string]model.Category, len(plugins)),
	}

	for _, p := range plugins {
		if p == nil {
			continue
		}
		name := p.Name()
		if name == "" {
			continue
		}
		if _, exists := r.lanes[name]; exists {
			continue
		}
		r.plugins = append(r.plugins, p)
		r.lanes[name] = model.ParseCategory(string(p.Lane()))
	}

	return r
}

// Plugins 返回注册顺序的插件列表副本
func (r *Registry) Plugins() []SearchPlugin {
	out := make([]SearchPlugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Len 已注册插件数量
func (r *Registry) Len() int {
	return len(r.plugins)
}

// Names 注册顺序的插件名称
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	return names
}

// LaneOf 返回插件的规范化车道
func (r *Registry) LaneOf(name string) (model.Category, bool) {
	lane, ok := r.lanes[name]
	return lane, ok
}

// ByLane 按车道分组的插件名称，组内保持注册顺序
func (r *Registry) ByLane() map[model.Category][]string {
	out := make(map[model.Category][]string, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = []string{}
	}
	for _, p := range r.plugins {
		lane := r.lanes[p.Name()]
		out[lane] = append(out[lane], p.Name())
	}
	return out
}

// FilterByNames 只保留启用列表中的插件，列表为空时全部保留
func (r *Registry) FilterByNames(enabled []string) *Registry {
	if len(enabled) == 0 {
		return r
	}

	enabledMap := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			enabledMap[name] = true
		}
	}
	if len(enabledMap) == 0 {
		return r
	}

	kept := make([]SearchPlugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		if enabledMap[strings.ToLower(p.Name())] {
			kept = append(kept, p)
		}
	}
	return NewRegistry(kept...)
}

// FilterResultsByKeyword 只保留标题或摘要包含全部关键词的结果（不区分大小写）
func FilterResultsByKeyword(results []model.SearchResult, keyword string) []model.SearchResult {
	keywords := strings.Fields(strings.ToLower(keyword))
	if len(keywords) == 0 {
		return results
	}

	filteredResults := make([]model.SearchResult, 0, len(results))
	for _, result := range results {
		text := strings.ToLower(result.Title + " " + result.Snippet)

		matched := true
		for _, kw := range keywords {
			if !strings.Contains(text, kw) {
				matched = false
				break
			}
		}

		if matched {
			filteredResults = append(filteredResults, result)
		}
	}

	return filteredResults
}
