package util

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

// UserAgent 所有出站请求默认携带的UA
const UserAgent = "e-library/1.0 (+https://github.com/Popoeson/e-library)"

// RetryBaseDelay 429退避的基础时长，测试中可调小
var RetryBaseDelay = 500 * time.Millisecond

// 全局HTTP客户端
var (
	httpClient     *http.Client
	httpClientLock sync.Mutex
)

// NewHTTPClient 创建HTTP客户端，proxyURL为空时直连
// 支持socks5://和http(s)://两种代理
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		ForceAttemptHTTP2: true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		// 连接池：每个数据源都是不同的host，单host连接数不需要太大
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			if parsed.Scheme == "socks5" || parsed.Scheme == "socks5h" {
				dialer, err := proxy.FromURL(parsed, proxy.Direct)
				if err == nil {
					if cd, ok := dialer.(proxy.ContextDialer); ok {
						transport.DialContext = cd.DialContext
					} else {
						transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
							return dialer.Dial(network, addr)
						}
					}
				}
			} else {
				transport.Proxy = http.ProxyURL(parsed)
			}
		}
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// InitHTTPClient 初始化全局HTTP客户端
func InitHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	httpClientLock.Lock()
	defer httpClientLock.Unlock()
	httpClient = NewHTTPClient(proxyURL, timeout)
	return httpClient
}

// GetHTTPClient 获取全局HTTP客户端
func GetHTTPClient() *http.Client {
	httpClientLock.Lock()
	defer httpClientLock.Unlock()
	if httpClient == nil {
		httpClient = NewHTTPClient("", 0)
	}
	return httpClient
}

// StatusError 非2xx响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

// DoWithRetry 执行请求，遇到429时按指数退避重试
// 退避期间context结束则直接返回ctx.Err()；重试用尽后返回最后一次429响应
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(1<<uint(attempt)) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// ReadBody 读取响应体，非2xx时返回StatusError（响应体截断到256字节）
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
