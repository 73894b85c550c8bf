package oercommons

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
	Name = "oercommons"

	// DefaultBaseURL OER Commons搜索接口
	DefaultBaseURL = "https://www.oercommons.org/api/v2/search"

	maxResults = 50
)

// Plugin OER Commons开放教育资源检索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
}

// New 创建OER Commons插件
func New(opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryOthers, maxResults, opts...),
		BaseURL:      DefaultBaseURL,
	}
}

// Search 检索开放教育资源
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(p.ClampLimit(limit)))

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL, params, nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(resp.Data))
	for _, item := range resp.Data {
		link := util.FirstNonEmpty(item.URL)
		title := util.CollapseSpace(util.StripMarkup(item.Title))
		if link == "" && title == "" {
			continue
		}

		authors := util.StringsOf(item.Authors)
		if authors == nil {
			authors = []string{}
		}

		results = append(results, model.SearchResult{
			Title:     util.FirstNonEmpty(title, "Untitled"),
			Link:      link,
			ID:        util.FirstString(item.ID),
			Snippet:   util.CleanSnippet(item.Description),
			Source:    Name,
			Type:      model.TypeHandout,
			Category:  model.CategoryOthers,
			Authors:   authors,
			Published: item.DateCreated,
		})
	}
	return results, nil
}

// OER Commons响应结构
type searchResponse struct {
	Data []resource `json:"data"`
}

type resource struct {
	ID          interface{} `json:"id"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
	Authors     interface{} `json:"authors"`
	DateCreated string      `json:"date_created"`
}
