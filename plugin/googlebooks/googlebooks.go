package googlebooks

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
	Name = "googlebooks"

	// DefaultBaseURL Google Books volumes接口
	DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

	maxResults = 40
)

// Plugin Google Books图书检索，API key可选
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
	apiKey  string
}

// New 创建Google Books插件
func New(apiKey string, opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryBooks, maxResults, opts...),
		BaseURL:      DefaultBaseURL,
		apiKey:       apiKey,
	}
}

// Search 检索图书
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(p.ClampLimit(limit)))
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL, params, nil)
	if err != nil {
		return nil, err
	}

	var resp volumesResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if r, ok := convertVolume(item); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

func convertVolume(item volume) (model.SearchResult, bool) {
	info := item.VolumeInfo
	link := util.FirstNonEmpty(info.PreviewLink, info.InfoLink)
	title := util.CollapseSpace(info.Title)
	if link == "" && title == "" {
		return model.SearchResult{}, false
	}

	// 只接受ISBN_13
	var isbns []string
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			isbns = append(isbns, id.Identifier)
		}
	}

	authors := info.Authors
	if authors == nil {
		authors = []string{}
	}

	return model.SearchResult{
		Title:     util.FirstNonEmpty(title, "Untitled"),
		Link:      link,
		ID:        item.ID,
		Snippet:   util.CleanSnippet(util.FirstNonEmpty(info.Description, info.Subtitle)),
		Source:    Name,
		Type:      model.TypeBook,
		Category:  model.CategoryBooks,
		Authors:   authors,
		Published: info.PublishedDate,
		ISBN:      util.PickISBN13(isbns),
	}, true
}

// Google Books响应结构
type volumesResponse struct {
	Items []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	PreviewLink         string               `json:"previewLink"`
	InfoLink            string               `json:"infoLink"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}
