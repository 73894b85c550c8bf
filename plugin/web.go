package plugin

import (
	"strings"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/util"
)

// NewWebResult 构造网页车道结果
// 没有链接的结果被丢弃，没有标题时用链接的主机名作为标题
func NewWebResult(source, title, link, snippet string) (model.SearchResult, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return model.SearchResult{}, false
	}

	title = util.CollapseSpace(util.StripMarkup(title))
	if title == "" {
		title = util.HostOf(link)
	}
	if title == "" {
		return model.SearchResult{}, false
	}

	return model.SearchResult{
		Title:    title,
		Link:     link,
		Snippet:  util.CleanSnippet(snippet),
		Source:   source,
		Type:     model.TypeWeb,
		Category: model.CategoryWeb,
		Authors:  []string{},
	}, true
}
