package internetarchive

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
	Name = "internetarchive"

	// DefaultBaseURL advancedsearch接口
	DefaultBaseURL = "https://archive.org/advancedsearch.php"

	// DetailsURL 条目详情页前缀
	DetailsURL = "https://archive.org/details/"

	maxRows = 100
)

var fields = []string{"identifier", "title", "creator", "description", "mediatype", "date"}

// Plugin Internet Archive检索
type Plugin struct {
	*plugin.BaseProvider
	BaseURL string
}

// New 创建Internet Archive插件
func New(opts ...plugin.Option) *Plugin {
	return &Plugin{
		BaseProvider: plugin.NewBaseProvider(Name, model.CategoryArchives, maxRows, opts...),
		BaseURL:      DefaultBaseURL,
	}
}

// Search 按下载量排序检索，并只保留标题+描述包含全部关键词的条目
func (p *Plugin) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	for _, f := range fields {
		params.Add("fl[]", f)
	}
	params.Set("sort[]", "downloads desc")
	params.Set("rows", strconv.Itoa(p.ClampLimit(limit)))
	params.Set("output", "json")

	req, err := p.NewRequest(ctx, http.MethodGet, p.BaseURL, params, nil)
	if err != nil {
		return nil, err
	}

	var resp advancedSearchResponse
	if err := p.DoJSON(req, &resp); err != nil {
		return nil, err
	}

	// 先用完整描述过滤，再截断摘要
	results := make([]model.SearchResult, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		if r, ok := convertDoc(doc); ok {
			results = append(results, r)
		}
	}
	results = plugin.FilterResultsByKeyword(results, query)

	for i := range results {
		results[i].Snippet = util.TruncateText(results[i].Snippet, util.SnippetMaxLen)
	}
	return results, nil
}

func convertDoc(doc archiveDoc) (model.SearchResult, bool) {
	identifier := strings.TrimSpace(util.FirstString(doc.Identifier))
	link := ""
	if identifier != "" {
		link = DetailsURL + identifier
	}
	title := util.CollapseSpace(util.FirstString(doc.Title))
	if link == "" && title == "" {
		return model.SearchResult{}, false
	}

	authors := util.StringsOf(doc.Creator)
	if authors == nil {
		authors = []string{}
	}

	return model.SearchResult{
		Title:     util.FirstNonEmpty(title, identifier, "Untitled"),
		Link:      link,
		ID:        identifier,
		Snippet:   util.StripMarkup(strings.Join(util.StringsOf(doc.Description), " ")),
		Source:    Name,
		Type:      model.TypeArchive,
		Category:  model.CategoryArchives,
		Authors:   authors,
		Published: util.FirstString(doc.Date),
	}, true
}

// advancedsearch响应结构，多数字段可能是字符串或字符串数组
type advancedSearchResponse struct {
	Response struct {
		Docs []archiveDoc `json:"docs"`
	} `json:"response"`
}

type archiveDoc struct {
	Identifier  interface{} `json:"identifier"`
	Title       interface{} `json:"title"`
	Creator     interface{} `json:"creator"`
	Description interface{} `json:"description"`
	MediaType   interface{} `json:"mediatype"`
	Date        interface{} `json:"date"`
}
