package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

// OptionalAuthMiddleware 可选认证中间件（不强制要求认证）
// 令牌由外部认证服务签发（HS256），校验通过时写入user_id，无效或缺失时照常放行
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if userID, err := parseUserID(tokenString, key); err == nil && userID != "" {
			c.Set(userIDKey, userID)
		}

		c.Next()
	}
}

// parseUserID 校验令牌并取出用户ID，优先user_id，其次sub
func parseUserID(tokenString string, key []byte) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	return claims.GetSubject()
}

// GetCurrentUserID 获取当前用户ID，匿名请求返回空字符串
func GetCurrentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
