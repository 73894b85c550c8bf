package model

// 响应状态
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CategoryGroup 单个分类桶内的已排序结果
type CategoryGroup struct {
	Category Category       `json:"category" sonic:"category"`
	Results  []SearchResult `json:"results" sonic:"results"`
}

// SearchResponse 搜索响应
type SearchResponse struct {
	Status         string          `json:"status" sonic:"status"`
	OriginalQuery  string          `json:"originalQuery" sonic:"originalQuery"`
	RewrittenQuery string          `json:"rewrittenQuery" sonic:"rewrittenQuery"`
	Subject        string          `json:"subject" sonic:"subject"`
	Summary        string          `json:"summary" sonic:"summary"`
	ResultsCount   int             `json:"resultsCount" sonic:"resultsCount"`
	SourcesCount   map[string]int  `json:"sourcesCount" sonic:"sourcesCount"`
	Results        []CategoryGroup `json:"results" sonic:"results"`
}

// Flatten 按桶顺序展开所有结果
func (r SearchResponse) Flatten() []SearchResult {
	out := make([]SearchResult, 0, r.ResultsCount)
	for _, g := range r.Results {
		out = append(out, g.Results...)
	}
	return out
}

// ErrorResponse 参数校验失败或内部错误时返回
type ErrorResponse struct {
	Status  string `json:"status" sonic:"status"`
	Message string `json:"message" sonic:"message"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{
		Status:  StatusError,
		Message: message,
	}
}
