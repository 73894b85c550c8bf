package util

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// SnippetMaxLen 摘要最大字符数
	SnippetMaxLen = 300
	// Ellipsis 截断后追加的省略号
	Ellipsis = "…"
)

var (
	// 兜底的标签清理正则，goquery解析失败时使用
	tagRegex = regexp.MustCompile(`</?[^>]+(>|$)`)

	// ISBN中允许出现的分隔符
	isbnSeparatorRegex = regexp.MustCompile(`[\s-]`)
)

// StripMarkup 去除HTML/XML标记（包括JATS摘要标签），解码实体并压缩空白
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}

	text := s
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		} else {
			text = tagRegex.ReplaceAllString(s, " ")
		}
	}

	return CollapseSpace(text)
}

// CollapseSpace 将连续空白（含换行）压缩为单个空格
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText 按字符截断，超出时追加省略号
func TruncateText(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + Ellipsis
}

// CleanSnippet 清理标记并截断到SnippetMaxLen
func CleanSnippet(s string) string {
	return TruncateText(StripMarkup(s), SnippetMaxLen)
}

// FirstNonEmpty 返回第一个非空字符串（去除首尾空白后判断）
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// HostOf 返回链接的主机名，解析失败时返回空字符串
func HostOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// PickISBN13 从候选列表中挑出第一个合法长度的ISBN-13
func PickISBN13(candidates []string) string {
	for _, c := range candidates {
		isbn := isbnSeparatorRegex.ReplaceAllString(c, "")
		if len(isbn) == 13 && isDigits(isbn) {
			return isbn
		}
	}
	return ""
}

// DOIURL 将DOI转换为可访问的链接
func DOIURL(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(doi), "http") {
		return doi
	}
	return "https://doi.org/" + doi
}

// StringsOf 将数据源返回的"字符串或字符串数组"字段统一为切片
func StringsOf(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return nil
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}

// FirstString 返回"字符串或字符串数组"字段中的第一个值
func FirstString(v interface{}) string {
	if values := StringsOf(v); len(values) > 0 {
		return values[0]
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
