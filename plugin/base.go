package plugin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/util"
	"github.com/Popoeson/e-library/util/json"
)

// DefaultMaxRetries 429重试次数
const DefaultMaxRetries = 2

// BaseProvider 数据源适配器的公共部分：名称、车道、HTTP客户端和限流
type BaseProvider struct {
	name      string
	lane      model.Category
	maxLimit  int
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// Option BaseProvider可选项
type Option func(*BaseProvider)

// WithHTTPClient 指定HTTP客户端
func WithHTTPClient(client *http.Client) Option {
	return func(b *BaseProvider) {
		if client != nil {
			b.client = client
		}
	}
}

// WithRateLimit 限制每秒请求数，rps<=0表示不限流
func WithRateLimit(rps float64) Option {
	return func(b *BaseProvider) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithUserAgent 覆盖默认UA
func WithUserAgent(ua string) Option {
	return func(b *BaseProvider) {
		if ua != "" {
			b.userAgent = ua
		}
	}
}

// NewBaseProvider 创建基础适配器，maxLimit为数据源单次允许的最大条数
func NewBaseProvider(name string, lane model.Category, maxLimit int, opts ...Option) *BaseProvider {
	b := &BaseProvider{
		name:      name,
		lane:      lane,
		maxLimit:  maxLimit,
		userAgent: util.UserAgent,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.client == nil {
		b.client = util.GetHTTPClient()
	}
	return b
}

// Name 返回数据源名称
func (b *BaseProvider) Name() string {
	return b.name
}

// Lane 返回车道
func (b *BaseProvider) Lane() model.Category {
	return b.lane
}

// Client 返回HTTP客户端
func (b *BaseProvider) Client() *http.Client {
	return b.client
}

// ClampLimit 将请求条数限制在[1, maxLimit]
func (b *BaseProvider) ClampLimit(limit int) int {
	if limit < 1 {
		limit = 1
	}
	if b.maxLimit > 0 && limit > b.maxLimit {
		limit = b.maxLimit
	}
	return limit
}

// NewRequest 构造带默认请求头的请求
func (b *BaseProvider) NewRequest(ctx context.Context, method, endpoint string, params url.Values, body io.Reader) (*http.Request, error) {
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", b.name, err)
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Fetch 限流后发送请求并读取响应体，429自动重试
func (b *BaseProvider) Fetch(req *http.Request) ([]byte, error) {
	ctx := req.Context()
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit wait: %w", b.name, err)
		}
	}

	resp, err := util.DoWithRetry(ctx, b.client, req, DefaultMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", b.name, err)
	}

	body, err := util.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.name, err)
	}
	return body, nil
}

// DoJSON 发送请求并将JSON响应解析到out
func (b *BaseProvider) DoJSON(req *http.Request, out interface{}) error {
	body, err := b.Fetch(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", b.name, err)
	}
	return nil
}
