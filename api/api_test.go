package api

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Popoeson/e-library/config"
	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/service"
	jsonutil "github.com/Popoeson/e-library/util/json"
)

type stubProvider struct {
	name    string
	lane    model.Category
	results []model.SearchResult
	err     error
	calls   int32
	query   atomic.Value
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) Lane() model.Category { return s.lane }

func (s *stubProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	atomic.AddInt32(&s.calls, 1)
	s.query.Store(query)
	return s.results, s.err
}

// passthroughAssistant 不改写，统一中性分
type passthroughAssistant struct {
	panicOnScore bool
}

func (a passthroughAssistant) Rewrite(ctx context.Context, query, subject string) string {
	return query
}

func (a passthroughAssistant) Score(ctx context.Context, query, subject string, results []model.SearchResult) []model.SearchResult {
	if a.panicOnScore {
		panic("scorer exploded")
	}
	out := make([]model.SearchResult, len(results))
	for i, r := range results {
		out[i] = r.WithScore(50)
	}
	return out
}

func (a passthroughAssistant) Summarize(ctx context.Context, query, subject string) string {
	return "About " + query
}

func newTestRouter(t *testing.T, cfg *config.Config, assistant passthroughAssistant, logger *zap.Logger, providers ...plugin.SearchPlugin) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	svc := service.NewSearchService(plugin.NewRegistry(providers...), assistant, nil, logger, service.Options{
		ProviderTimeout: time.Second,
		Deadline:        2 * time.Second,
	})
	return SetupRouter(NewHandler(svc, false, logger), cfg, logger)
}

func do(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchPost(t *testing.T) {
	p := &stubProvider{name: "arxiv", lane: model.CategoryJournals, results: []model.SearchResult{{Title: "Paper", Link: "http://arxiv.org/abs/1"}}}
	r := newTestRouter(t, nil, passthroughAssistant{}, nil, p)

	w := do(r, http.MethodPost, "/api/search", `{"query":"graph theory","subject":"math","limit":5}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var resp model.SearchResponse
	require.NoError(t, jsonutil.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Equal(t, "graph theory", resp.OriginalQuery)
	assert.Equal(t, "math", resp.Subject)
	assert.Equal(t, "About graph theory", resp.Summary)
	assert.Equal(t, 1, resp.ResultsCount)
	assert.Equal(t, map[string]int{"arxiv": 1}, resp.SourcesCount)
	require.Len(t, resp.Results, 5)
	assert.Equal(t, model.CategoryJournals, resp.Results[2].Category)
	require.Len(t, resp.Results[2].Results, 1)
	assert.Equal(t, 50.0, resp.Results[2].Results[0].ScoreValue())
}

func TestSearchGetPreferPdf(t *testing.T) {
	w1 := &stubProvider{name: "brave", lane: model.CategoryWeb}
	r := newTestRouter(t, nil, passthroughAssistant{}, nil, w1)

	w := do(r, http.MethodGet, "/api/search?query=calculus&preferPdf=true&limit=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "calculus filetype:pdf", w1.query.Load())
}

func TestSearchValidation(t *testing.T) {
	p := &stubProvider{name: "arxiv", lane: model.CategoryJournals}
	r := newTestRouter(t, nil, passthroughAssistant{}, nil, p)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"post missing query", http.MethodPost, "/api/search", `{"subject":"math"}`},
		{"post blank query", http.MethodPost, "/api/search", `{"query":"   "}`},
		{"post empty body", http.MethodPost, "/api/search", ""},
		{"get missing query", http.MethodGet, "/api/search", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.target, tt.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp model.ErrorResponse
			require.NoError(t, jsonutil.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, model.StatusError, resp.Status)
			assert.Equal(t, service.ErrInvalidQuery.Error(), resp.Message)
		})
	}

	w := do(r, http.MethodPost, "/api/search", `{"query":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, atomic.LoadInt32(&p.calls))
}

// failingSearcher 总是返回内部错误
type failingSearcher struct {
	err error
}

func (f failingSearcher) Search(ctx context.Context, req model.SearchRequest) (model.SearchResponse, error) {
	return model.SearchResponse{}, f.err
}

func (f failingSearcher) Registry() *plugin.Registry {
	return plugin.NewRegistry()
}

func TestSearchInternalErrorHidesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	searcher := failingSearcher{err: &service.InternalError{Stage: "assemble", Err: errors.New("panic: bucket exploded")}}
	r := SetupRouter(NewHandler(searcher, false, logger), &config.Config{}, logger)

	w := do(r, http.MethodPost, "/api/search", `{"query":"q"}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "exploded")

	entries := logs.FilterMessage("search request failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "bucket exploded")
}

func TestSearchScorerPanicStillSucceeds(t *testing.T) {
	p := &stubProvider{name: "arxiv", lane: model.CategoryJournals, results: []model.SearchResult{{Title: "x", Link: "http://x"}}}
	r := newTestRouter(t, nil, passthroughAssistant{panicOnScore: true}, nil, p)

	w := do(r, http.MethodPost, "/api/search", `{"query":"q"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.SearchResponse
	require.NoError(t, jsonutil.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusSuccess, resp.Status)
	require.Equal(t, 1, resp.ResultsCount)
	assert.Equal(t, 50.0, resp.Flatten()[0].ScoreValue())
}

func TestSearchProviderFailureStillSucceeds(t *testing.T) {
	ok := &stubProvider{name: "crossref", lane: model.CategoryJournals, results: []model.SearchResult{{Title: "x", Link: "http://x"}}}
	bad := &stubProvider{name: "openlibrary", lane: model.CategoryBooks, err: errors.New("boom")}
	r := newTestRouter(t, nil, passthroughAssistant{}, nil, ok, bad)

	w := do(r, http.MethodPost, "/api/search", `{"query":"q"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.SearchResponse
	require.NoError(t, jsonutil.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]int{"crossref": 1, "openlibrary": 0}, resp.SourcesCount)
}

func TestHealthAndProviders(t *testing.T) {
	r := newTestRouter(t, nil, passthroughAssistant{}, nil,
		&stubProvider{name: "brave", lane: model.CategoryWeb},
		&stubProvider{name: "arxiv", lane: model.CategoryJournals},
	)

	w := do(r, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status         string              `json:"status"`
		ProvidersCount int                 `json:"providers_count"`
		Providers      map[string][]string `json:"providers"`
	}
	require.NoError(t, jsonutil.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.ProvidersCount)
	assert.Equal(t, []string{"brave"}, health.Providers["Web"])
	assert.Equal(t, []string{}, health.Providers["Books"])

	w = do(r, http.MethodGet, "/api/providers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"brave","lane":"Web"},{"name":"arxiv","lane":"Journals"}]`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil, passthroughAssistant{}, nil)
	w := do(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsCompressedOnceWithCompressionEnabled(t *testing.T) {
	cfg := &config.Config{EnableCompression: true, MinSizeToCompress: 1}
	r := newTestRouter(t, cfg, passthroughAssistant{}, nil, &stubProvider{name: "arxiv", lane: model.CategoryJournals})
	gzipHeader := map[string]string{"Accept-Encoding": "gzip"}

	w := do(r, http.MethodGet, "/metrics", "", gzipHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "# HELP")

	// API路由仍由gzip中间件压缩
	w = do(r, http.MethodGet, "/api/providers", "", gzipHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil, passthroughAssistant{}, nil)
	w := do(r, http.MethodOptions, "/api/search", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newTestRouter(t, nil, passthroughAssistant{}, nil)
	w := do(r, http.MethodGet, "/api/health", "", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestOptionalAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "s3cret"

	newEngine := func(secret string) *gin.Engine {
		r := gin.New()
		r.Use(OptionalAuthMiddleware(secret))
		r.GET("/", func(c *gin.Context) {
			c.String(http.StatusOK, GetCurrentUserID(c))
		})
		return r
	}

	tests := []struct {
		name   string
		secret string
		header string
		want   string
	}{
		{"valid user_id claim", secret, "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"}), "u-1"},
		{"valid sub claim", secret, "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-2"}), "u-2"},
		{"wrong secret", secret, "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"}), ""},
		{"wrong algorithm", secret, "Bearer " + signToken(t, secret, jwt.SigningMethodHS512, jwt.MapClaims{"user_id": "u-1"}), ""},
		{"expired", secret, "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1", "exp": time.Now().Add(-time.Hour).Unix()}), ""},
		{"no header", secret, "", ""},
		{"not bearer", secret, "Basic abc", ""},
		{"auth disabled", "", "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"}), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := do(newEngine(tt.secret), http.MethodGet, "/", "", headers)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}
