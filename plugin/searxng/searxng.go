package searxng

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/util"
)

const (
	// Name 数据源名称
	Name = "searxng"

	maxResults = 50
)

// Plugin 自建SearXNG元搜索实例
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
}

// New 创建SearXNG插件，baseURL为实例根地址
func New(baseURL string, opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryWeb, maxResults, opts...),
		BaseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// Search 以JSON格式检索通用分类
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	limit = p.ClampLimit(limit)

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("language", "en")
	params.Set("safesearch", "0")
	params.Set("categories", "general")

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL+"/search", params, nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	// SearXNG不支持条数参数，本地截断
	results := make([]model.SearchResult, 0, limit)
	for _, item := range resp.Results {
		r, ok := plugin.NewWebResult(Name, item.Title, item.URL, util.FirstNonEmpty(item.Content, item.Snippet))
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

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Snippet string `json:"snippet"`
		Engine  string `json:"engine"`
	} `json:"results"`
}
