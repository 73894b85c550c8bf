package serpstack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
)

const (
	// Name 数据源名称
	Name = "serpstack"

	// DefaultBaseURL serpstack接口（免费套餐仅支持http）
	DefaultBaseURL = "http://api.serpstack.com/search"

	maxResults = 100
)

// Plugin serpstack网页搜索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL   string
	accessKey string
}

// New 创建serpstack插件
func New(accessKey string, opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryWeb, maxResults, opts...),
		BaseURL:      DefaultBaseURL,
		accessKey:    accessKey,
	}
}

// Search 检索网页
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("access_key", p.accessKey)
	params.Set("query", query)
	params.Set("num", strconv.Itoa(p.ClampLimit(limit)))

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL, params, nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	// serpstack出错时仍返回200，错误信息放在error字段
	if resp.Error != nil && resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("serpstack: api error %d: %s", resp.Error.Code, resp.Error.Info)
	}

	results := make([]model.SearchResult, 0, len(resp.OrganicResults))
	for _, item := range resp.OrganicResults {
		if r, ok := plugin.NewWebResult(Name, item.Title, item.URL, item.Snippet); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

type searchResponse struct {
	Success *bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}
