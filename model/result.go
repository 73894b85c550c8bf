package model

import "strings"

// Category 结果所属的粗粒度分类（车道）
type Category string

const (
	CategoryWeb      Category = "Web"
	CategoryBooks    Category = "Books"
	CategoryJournals Category = "Journals"
	CategoryArchives Category = "Archives"
	CategoryOthers   Category = "Others"
)

// Categories 响应分组时使用的固定桶顺序
var Categories = []Category{
	CategoryWeb,
	CategoryBooks,
	CategoryJournals,
	CategoryArchives,
	CategoryOthers,
}

// ParseCategory 将车道名称映射为已知分类，未知名称归入Others
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c
		}
	}
	return CategoryOthers
}

// 粗粒度内容类型，写入SearchResult.Type
const (
	TypeWeb      = "web"
	TypeBook     = "book"
	TypeResearch = "research"
	TypeArchive  = "archive"
	TypeHandout  = "handout"
)

// SearchResult 规范化后的搜索结果，所有数据源适配器都输出此结构
type SearchResult struct {
	Title     string   `json:"title" sonic:"title"`
	Link      string   `json:"link" sonic:"link"`
	ID        string   `json:"id,omitempty" sonic:"id,omitempty"` // 数据源原生ID
	Snippet   string   `json:"snippet" sonic:"snippet"`
	Source    string   `json:"source" sonic:"source"`
	Type      string   `json:"type" sonic:"type"`
	Category  Category `json:"category" sonic:"category"`
	Authors   []string `json:"authors" sonic:"authors"`
	Published string   `json:"published,omitempty" sonic:"published,omitempty"`
	DOI       string   `json:"doi,omitempty" sonic:"doi,omitempty"`
	ISBN      string   `json:"isbn,omitempty" sonic:"isbn,omitempty"`
	Journal   string   `json:"journal,omitempty" sonic:"journal,omitempty"`
	Score     *float64 `json:"score,omitempty" sonic:"score,omitempty"`
}

// IdentityKey 返回跨数据源去重使用的身份键
// 优先link，其次id，最后title；统一转小写并去除首尾空白
func (r SearchResult) IdentityKey() string {
	for _, v := range []string{r.Link, r.ID, r.Title} {
		if key := strings.ToLower(strings.TrimSpace(v)); key != "" {
			return key
		}
	}
	return ""
}

// HasScore 是否已经被排序器打分
func (r SearchResult) HasScore() bool {
	return r.Score != nil
}

// ScoreValue 返回分数，未打分时返回0
func (r SearchResult) ScoreValue() float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

// WithScore 返回带有指定分数的副本
func (r SearchResult) WithScore(score float64) SearchResult {
	s := score
	r.Score = &s
	return r
}
