package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CodeTooManyRequests は上限超過時のエラーコードです。
const CodeTooManyRequests = "TOO_MANY_REQUESTS"

// Middleware はクライアントIPごとにリクエストを制限するginミドルウェアを返します。
// scopeはエンドポイントごとにカウンターを分けるためのキーです。
// バックエンドのエラー時はリクエストを通します（fail-open）。
func Middleware(l Limiter, scope string, cfg Config) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.Window.Seconds()))
	return func(c *gin.Context) {
		allowed, err := l.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "scope", scope, "error", err)
			c.Next()
			return
		}
		if !allowed {
			slog.Warn("rate limit exceeded", "scope", scope, "remote_addr", c.ClientIP())
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": CodeTooManyRequests})
			return
		}
		c.Next()
	}
}
