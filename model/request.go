package model

// DefaultSubject 请求未指定学科时使用的默认值
const DefaultSubject = "general"

// SearchRequest 搜索请求参数
type SearchRequest struct {
	Query     string `json:"query" sonic:"query"`         // 搜索内容，必填
	Subject   string `json:"subject" sonic:"subject"`     // 学科提示，供AI改写和摘要使用
	Limit     int    `json:"limit" sonic:"limit"`         // 每个数据源返回的结果数
	PreferPdf bool   `json:"preferPdf" sonic:"preferPdf"` // 网页搜索是否偏向PDF
}
