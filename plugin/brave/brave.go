package brave

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/util"
)

const (
	// Name 数据源名称
	Name = "brave"

	// DefaultBaseURL Brave网页搜索接口
	DefaultBaseURL = "https://api.search.brave.com/res/v1/web/search"

	maxCount = 20
)

// Plugin Brave网页搜索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
	apiKey  string
}

// New 创建Brave插件，baseURL为空时使用官方地址
func New(apiKey, baseURL string, opts ...plugin.Option) *Plugin {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryWeb, maxCount, opts...),
		BaseURL:      baseURL,
		apiKey:       apiKey,
	}
}

// Search 检索网页
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	limit = p.ClampLimit(limit)

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(limit))

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL, params, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Subscription-Token", p.apiKey)

	var resp map[string]interface{}
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	items := extractItems(resp)
	results := make([]model.SearchResult, 0, len(items))
	for _, item := range items {
		r, ok := plugin.NewWebResult(Name,
			pickString(item, "title", "name", "headline"),
			pickString(item, "url", "link", "canonicalUrl"),
			pickString(item, "description", "snippet", "excerpt", "summary"),
		)
		if !ok {
			continue
		}
		results = append(results, r)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// extractItems 兼容 results / items / web.results 三种结构
func extractItems(resp map[string]interface{}) []map[string]interface{} {
	candidates := []interface{}{resp["results"], resp["items"]}
	if web, ok := resp["web"].(map[string]interface{}); ok {
		candidates = append(candidates, web["results"])
	}

	for _, c := range candidates {
		list, ok := c.([]interface{})
		if !ok || len(list) == 0 {
			continue
		}
		items := make([]map[string]interface{}, 0, len(list))
		for _, v := range list {
			if m, ok := v.(map[string]interface{}); ok {
				items = append(items, m)
			}
		}
		return items
	}
	return nil
}

func pickString(item map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := util.FirstString(item[k]); s != "" {
			return s
		}
	}
	return ""
}
