// Package router はアプリケーションのHTTPルーティングを定義します。
package router

import (
	"github.com/gin-gonic/gin"

	authhandler "account_backend/internal/feature/auth/transport/handler"
	platformhandler "account_backend/internal/platform/http/handler"
	jwtmw "account_backend/internal/platform/jwt"
	"account_backend/internal/platform/ratelimit"
)

// NewRouter はすべてのエンドポイントを登録したginエンジンを生成します。
// resolveはBearerトークンからユーザーを解決する関数で、認証必須ルートで使用します。
func NewRouter(authHandler *authhandler.AuthHandler, health *platformhandler.HealthHandler,
	resolve jwtmw.ResolveFunc, limiter ratelimit.Limiter, rateCfg ratelimit.Config) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	// パスワード試行やメール送信を伴うエンドポイントはIPごとに回数を制限する
	limit := func(scope string) gin.HandlerFunc {
		return ratelimit.Middleware(limiter, scope, rateCfg)
	}

	auth := r.Group("/auth")
	{
		// 新規ユーザー登録
		auth.POST("/register", authHandler.Register)
		// ログイン（アクセストークン・リフレッシュトークン発行）
		auth.POST("/login", limit("login"), authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		// メールアドレス確認
		auth.POST("/request-verify-token", limit("request-verify-token"), authHandler.RequestVerifyToken)
		auth.POST("/verify", authHandler.Verify)
		// パスワード再設定
		auth.POST("/forgot-password", limit("forgot-password"), authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// 認証必須のルート
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに Bearer トークンが必要になる
	me := r.Group("/users/me")
	me.Use(jwtmw.AuthRequired(resolve))
	{
		me.GET("", authHandler.Me)
		me.PATCH("", authHandler.UpdateMe)
		me.DELETE("", authHandler.DeleteMe)
		me.POST("/password", authHandler.ChangePassword)
	}

	return r
}
