package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/service"
	"github.com/Popoeson/e-library/util"
	jsonutil "github.com/Popoeson/e-library/util/json"
)

// Searcher 处理器依赖的检索能力，*service.SearchService满足此接口
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) (model.SearchResponse, error)
	Registry() *plugin.Registry
}

// Handler 检索API处理器
type Handler struct {
	service   Searcher
	aiEnabled bool
	logger    *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(searchService Searcher, aiEnabled bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:   searchService,
		aiEnabled: aiEnabled,
		logger:    logger,
	}
}

// ProviderInfo 数据源描述
type ProviderInfo struct {
	Name string         `json:"name"`
	Lane model.Category `json:"lane"`
}

// Search 搜索处理函数，支持GET和POST
func (h *Handler) Search(c *gin.Context) {
	var req model.SearchRequest

	if c.Request.Method == http.MethodGet {
		// GET方式：从URL参数获取
		req = model.SearchRequest{
			Query:     c.Query("query"),
			Subject:   c.Query("subject"),
			Limit:     util.StringToInt(c.Query("limit")),
			PreferPdf: parseBool(c.Query("preferPdf")),
		}
	} else {
		// POST方式：从请求体获取
		data, err := c.GetRawData()
		if err != nil {
			writeJSON(c, http.StatusBadRequest, model.NewErrorResponse("failed to read request body"))
			return
		}
		if len(data) > 0 {
			if err := jsonutil.Unmarshal(data, &req); err != nil {
				writeJSON(c, http.StatusBadRequest, model.NewErrorResponse("invalid request body"))
				return
			}
		}
	}

	resp, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		if service.IsValidationError(err) {
			writeJSON(c, http.StatusBadRequest, model.NewErrorResponse(err.Error()))
			return
		}
		h.logger.Error("search request failed",
			zap.String("request_id", GetRequestID(c)),
			zap.String("user_id", GetCurrentUserID(c)),
			zap.Error(err))
		writeJSON(c, http.StatusInternalServerError, model.NewErrorResponse("internal server error"))
		return
	}

	writeJSON(c, http.StatusOK, resp)
}

// Health 健康检查，列出各车道的数据源
func (h *Handler) Health(c *gin.Context) {
	registry := h.service.Registry()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"ai_enabled":      h.aiEnabled,
		"providers_count": registry.Len(),
		"providers":       registry.ByLane(),
	})
}

// Providers 按注册顺序列出数据源
func (h *Handler) Providers(c *gin.Context) {
	registry := h.service.Registry()
	infos := make([]ProviderInfo, 0, registry.Len())
	for _, name := range registry.Names() {
		lane, _ := registry.LaneOf(name)
		infos = append(infos, ProviderInfo{Name: name, Lane: lane})
	}
	writeJSON(c, http.StatusOK, infos)
}

// writeJSON 使用sonic序列化响应
func writeJSON(c *gin.Context, status int, v interface{}) {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		c.Data(http.StatusInternalServerError, "application/json", []byte(`{"status":"error","message":"internal server error"}`))
		return
	}
	c.Data(status, "application/json", data)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
