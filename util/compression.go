package util

import (
	"bytes"
	"compress/gzip"
	"strings"

	"github.com/gin-gonic/gin"
)

// bufferedWriter 缓存整个响应体，由中间件决定是否压缩
type bufferedWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// GzipMiddleware 返回一个Gin中间件，响应体不小于minSize时使用gzip压缩
func GzipMiddleware(enabled bool, minSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 如果未启用压缩，直接跳过
		if !enabled {
			c.Next()
			return
		}

		// 检查客户端是否支持gzip
		if !strings.Contains(c.Request.Header.Get("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		original := c.Writer
		bw := &bufferedWriter{ResponseWriter: original, body: &bytes.Buffer{}}
		c.Writer = bw

		c.Next()

		c.Writer = original
		data := bw.body.Bytes()

		// 头部已发送或内容太小时原样输出
		if original.Written() || len(data) < minSize {
			original.Write(data)
			return
		}

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")
		original.Header().Del("Content-Length")

		gz, err := gzip.NewWriterLevel(original, gzip.BestSpeed)
		if err != nil {
			original.Header().Del("Content-Encoding")
			original.Write(data)
			return
		}
		defer gz.Close()

		gz.Write(data)
	}
}
