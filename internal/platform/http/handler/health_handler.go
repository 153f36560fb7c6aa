// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout は依存先の疎通確認にかける最大時間です。
const checkTimeout = 2 * time.Second

// CheckFunc は依存先（データベースなど）への疎通を確認する関数です。
type CheckFunc func(ctx context.Context) error

// HealthHandler はサービスヘルスチェック用の /healthz エンドポイントを処理します。
type HealthHandler struct {
	checkDB CheckFunc
}

// NewHealthHandler はHealthHandlerを生成します。checkDBがnilの場合は常に正常を返します。
func NewHealthHandler(checkDB CheckFunc) *HealthHandler {
	return &HealthHandler{checkDB: checkDB}
}

// Health はHTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
// データベースに到達できない場合は503を返します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	status, body := http.StatusOK, gin.H{"status": "ok", "database": "ok"}
	if h.checkDB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		defer cancel()
		if err := h.checkDB(ctx); err != nil {
			slog.Error("health check failed", "component", "database", "error", err)
			status, body = http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "unreachable"}
		}
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}
