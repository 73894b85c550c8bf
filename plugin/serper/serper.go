package serper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/util/json"
)

const (
	// Name 数据源名称
	Name = "serper"

	// DefaultBaseURL Serper Google搜索接口
	DefaultBaseURL = "https://google.serper.dev/search"

	maxResults = 100
)

// Plugin Serper（Google结果代理）网页搜索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
	apiKey  string
}

// New 创建Serper插件
func New(apiKey string, opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryWeb, maxResults, opts...),
		BaseURL:      DefaultBaseURL,
		apiKey:       apiKey,
	}
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

// Search 通过POST检索
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	payload, err := json.Marshal(searchRequest{Q: query, Num: p.ClampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("serper: encode request: %w", err)
	}

	req, err := p.NewRequest(ctx, http.MethodPost, p.BaseURL, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.apiKey)

	var resp searchResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(resp.Organic))
	for _, item := range resp.Organic {
		if r, ok := plugin.NewWebResult(Name, item.Title, item.Link, item.Snippet); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

type searchResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}
