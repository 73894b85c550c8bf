package arxiv

import (
	"context"
	"encoding/xml"
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
	Name = "arxiv"

	// DefaultBaseURL arXiv查询接口
	DefaultBaseURL = "https://export.arxiv.org/api/query"

	maxResults = 50
)

// Plugin arXiv论文检索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
}

// New 创建arXiv插件
func New(opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryJournals, maxResults, opts...),
		BaseURL:      DefaultBaseURL,
	}
}

// Search 按全文字段检索arXiv
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+strings.TrimSpace(query))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(p.ClampLimit(limit)))

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL, params, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/atom+xml")

	body, err := p.Fetch(req)
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("arxiv: parse feed: %w", err)
	}

	results := make([]model.SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if r, ok := convertEntry(entry); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

func convertEntry(entry atomEntry) (model.SearchResult, bool) {
	doi := strings.TrimSpace(entry.DOI)
	link := util.FirstNonEmpty(util.DOIURL(doi), entry.absLink(), entry.ID)
	title := util.CollapseSpace(entry.Title)
	if link == "" && title == "" {
		return model.SearchResult{}, false
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return model.SearchResult{
		Title:     util.FirstNonEmpty(title, "Untitled"),
		Link:      link,
		ID:        extractArxivID(entry.ID),
		Snippet:   util.CleanSnippet(entry.Summary),
		Source:    Name,
		Type:      model.TypeResearch,
		Category:  model.CategoryJournals,
		Authors:   authors,
		Published: strings.TrimSpace(entry.Published),
		DOI:       doi,
		Journal:   strings.TrimSpace(entry.JournalRef),
	}, true
}

// Atom响应结构，arxiv:前缀字段使用arXiv命名空间
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string       `xml:"id"`
	Title      string       `xml:"title"`
	Summary    string       `xml:"summary"`
	Published  string       `xml:"published"`
	Authors    []atomAuthor `xml:"author"`
	Links      []atomLink   `xml:"link"`
	DOI        string       `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef string       `xml:"http://arxiv.org/schemas/atom journal_ref"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// absLink 摘要页链接
func (e atomEntry) absLink() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" && l.Href != "" {
			return l.Href
		}
	}
	return ""
}

// extractArxivID 从<id>中提取arXiv编号，去掉版本后缀
// 例如 http://arxiv.org/abs/2301.07041v1 -> 2301.07041
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
