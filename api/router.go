package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Popoeson/e-library/config"
	"github.com/Popoeson/e-library/util"
)

// SetupRouter 设置路由
func SetupRouter(h *Handler, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.New()

	// 添加中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(CORSMiddleware())
	r.Use(OptionalAuthMiddleware(cfg.AuthJWTSecret))
	r.Use(LoggerMiddleware(logger))

	// promhttp自行按Accept-Encoding压缩，不经过gzip中间件
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(util.GzipMiddleware(cfg.EnableCompression, cfg.MinSizeToCompress))
	{
		// 搜索接口 - 支持POST和GET两种方式
		api.POST("/search", h.Search)
		api.GET("/search", h.Search)

		api.GET("/health", h.Health)
		api.GET("/providers", h.Providers)
	}

	return r
}
