package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结果标签
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
	OutcomeEmpty   = "empty"
)

var (
	// ProviderRequests 数据源调用次数
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elibrary_provider_requests_total",
			Help: "Total number of provider searches by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderResults 数据源返回的原始结果数
	ProviderResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elibrary_provider_results_total",
			Help: "Total number of raw results returned by providers",
		},
		[]string{"provider"},
	)

	// ProviderDuration 数据源调用耗时
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elibrary_provider_duration_seconds",
			Help:    "Provider search latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// AIRequests AI阶段调用次数
	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elibrary_ai_requests_total",
			Help: "Total number of LLM calls by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// AIDuration AI阶段耗时
	AIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elibrary_ai_duration_seconds",
			Help:    "LLM call latency by stage",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"stage"},
	)

	// SearchRequests 搜索请求次数
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elibrary_search_requests_total",
			Help: "Total number of search requests by status",
		},
		[]string{"status"},
	)

	// SearchDuration 完整流水线耗时
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "elibrary_search_duration_seconds",
			Help:    "End-to-end search pipeline latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// ResultsReturned 每次响应的去重结果数
	ResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "elibrary_results_returned",
			Help:    "Number of deduplicated results per response",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		},
	)
)

// RecordProvider 记录一次数据源调用
func RecordProvider(provider, outcome string, count int, elapsed time.Duration) {
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if count > 0 {
		ProviderResults.WithLabelValues(provider).Add(float64(count))
	}
}

// RecordAI 记录一次AI阶段调用
func RecordAI(stage, outcome string, elapsed time.Duration) {
	AIRequests.WithLabelValues(stage, outcome).Inc()
	AIDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordSearch 记录一次搜索请求
func RecordSearch(status string, results int, elapsed time.Duration) {
	SearchRequests.WithLabelValues(status).Inc()
	SearchDuration.Observe(elapsed.Seconds())
	if status == OutcomeSuccess {
		ResultsReturned.Observe(float64(results))
	}
}
