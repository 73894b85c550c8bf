package openlibrary

import (
	"context"
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
	Name = "openlibrary"

	// DefaultBaseURL Open Library站点根地址
	DefaultBaseURL = "https://openlibrary.org"

	maxResults = 100

	// 没有first_sentence时用主题拼接摘要，最多取前几个
	maxSubjects = 10
)

// Plugin Open Library图书检索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
}

// New 创建Open Library插件
func New(opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryBooks, maxResults, opts...),
		BaseURL:      DefaultBaseURL,
	}
}

// Search 检索图书
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(p.ClampLimit(limit)))

	req, err := p.NewRequest(ctx, http.MethodGet, strings.TrimRight(p.BaseURL, "/")+"/search.json", params, nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		if r, ok := p.convertDoc(doc); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

func (p *Plugin) convertDoc(doc searchDoc) (model.SearchResult, bool) {
	link := ""
	if key := strings.TrimSpace(doc.Key); key != "" {
		link = strings.TrimRight(p.BaseURL, "/") + key
	}
	title := util.CollapseSpace(doc.Title)
	if link == "" && title == "" {
		return model.SearchResult{}, false
	}

	// first_sentence可能是字符串、数组或{"value": "..."}对象
	snippet := util.FirstString(doc.FirstSentence)
	if snippet == "" {
		if m, ok := doc.FirstSentence.(map[string]interface{}); ok {
			snippet = util.FirstString(m["value"])
		}
	}
	if snippet == "" && len(doc.Subject) > 0 {
		subjects := doc.Subject
		if len(subjects) > maxSubjects {
			subjects = subjects[:maxSubjects]
		}
		snippet = strings.Join(subjects, ", ")
	}

	published := ""
	if doc.FirstPublishYear > 0 {
		published = strconv.Itoa(doc.FirstPublishYear)
	}

	authors := doc.AuthorName
	if authors == nil {
		authors = []string{}
	}

	return model.SearchResult{
		Title:     util.FirstNonEmpty(title, "Untitled"),
		Link:      link,
		ID:        doc.Key,
		Snippet:   util.CleanSnippet(snippet),
		Source:    Name,
		Type:      model.TypeBook,
		Category:  model.CategoryBooks,
		Authors:   authors,
		Published: published,
		ISBN:      util.PickISBN13(doc.ISBN),
	}, true
}

// Open Library响应结构
type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string      `json:"key"`
	Title            string      `json:"title"`
	AuthorName       []string    `json:"author_name"`
	FirstPublishYear int         `json:"first_publish_year"`
	ISBN             []string    `json:"isbn"`
	FirstSentence    interface{} `json:"first_sentence"`
	Subject          []string    `json:"subject"`
}
