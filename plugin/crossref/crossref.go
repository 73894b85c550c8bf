package crossref

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/util"
)

const (
	// Name 数据源名称
	Name = "crossref"

	// DefaultBaseURL Crossref works接口
	DefaultBaseURL = "https://api.crossref.org/works"

	maxRows = 100
)

// Plugin Crossref期刊文献检索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
}

// New 创建Crossref插件，contactEmail用于polite pool的User-Agent
func New(contactEmail string, opts ...plugin.Option) *Plugin {
	ua := "e-library/1.0"
	if email := strings.TrimSpace(contactEmail); email != "" {
		ua = fmt.Sprintf("e-library/1.0 (mailto:%s)", email)
	}
	opts = append([]plugin.Option{plugin.WithUserAgent(ua)}, opts...)

	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryJournals, maxRows, opts...),
		BaseURL:      DefaultBaseURL,
	}
}

// Search 检索Crossref
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", strconv.Itoa(p.ClampLimit(limit)))

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL, params, nil)
	if err != nil {
		return nil, err
	}

	var resp worksResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(resp.Message.Items))
	for _, item := range resp.Message.Items {
		if r, ok := convertItem(item); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

func convertItem(item workItem) (model.SearchResult, bool) {
	doi := strings.TrimSpace(item.DOI)
	link := util.FirstNonEmpty(item.URL, util.DOIURL(doi))
	title := ""
	if len(item.Title) > 0 {
		title = util.CollapseSpace(util.StripMarkup(item.Title[0]))
	}
	if link == "" && title == "" {
		return model.SearchResult{}, false
	}

	authors := make([]string, 0, len(item.Author))
	for _, a := range item.Author {
		if name := util.FirstNonEmpty(strings.TrimSpace(a.Given+" "+a.Family), a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	journal := ""
	if len(item.ContainerTitle) > 0 {
		journal = strings.TrimSpace(item.ContainerTitle[0])
	}

	return model.SearchResult{
		Title:     util.FirstNonEmpty(title, "Untitled"),
		Link:      link,
		ID:        doi,
		Snippet:   util.CleanSnippet(item.Abstract),
		Source:    Name,
		Type:      model.TypeResearch,
		Category:  model.CategoryJournals,
		Authors:   authors,
		Published: item.Issued.year(),
		DOI:       doi,
		Journal:   journal,
	}, true
}

// Crossref响应结构
type worksResponse struct {
	Message struct {
		Items []workItem `json:"items"`
	} `json:"message"`
}

type workItem struct {
	Title          []string     `json:"title"`
	URL            string       `json:"URL"`
	DOI            string       `json:"DOI"`
	Abstract       string       `json:"abstract"`
	Author         []workAuthor `json:"author"`
	ContainerTitle []string     `json:"container-title"`
	Issued         dateParts    `json:"issued"`
}

type workAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// dateParts 形如 {"date-parts": [[2019, 5, 1]]}，年份可能为null
type dateParts struct {
	Parts [][]interface{} `json:"date-parts"`
}

func (d dateParts) year() string {
	if len(d.Parts) == 0 || len(d.Parts[0]) == 0 || d.Parts[0][0] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(d.Parts[0][0]))
}
