// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/auth/domain/entity"
	"account_backend/internal/feature/auth/transport/http/dto"
	"account_backend/internal/feature/auth/usecase"
)

// レスポンスで返すエラーコード。
// 列挙攻撃を防ぐため、トークン系の失敗は理由を区別せず1つのコードにまとめます。
const (
	CodeBadRequest                = "BAD_REQUEST"
	CodeInternal                  = "INTERNAL_SERVER_ERROR"
	CodeUnauthorized              = "UNAUTHORIZED"
	CodeRegisterUserAlreadyExists = "REGISTER_USER_ALREADY_EXISTS"
	CodeRegisterInvalidPassword   = "REGISTER_INVALID_PASSWORD"
	CodeLoginBadCredentials       = "LOGIN_BAD_CREDENTIALS"
	CodeLoginUserNotVerified      = "LOGIN_USER_NOT_VERIFIED"
	CodeRefreshBadToken           = "REFRESH_BAD_TOKEN"
	CodeVerifyUserBadToken        = "VERIFY_USER_BAD_TOKEN"
	CodeVerifyUserAlreadyVerified = "VERIFY_USER_ALREADY_VERIFIED"
	CodeResetPasswordBadToken     = "RESET_PASSWORD_BAD_TOKEN"
	CodeResetPasswordInvalidPass  = "RESET_PASSWORD_INVALID_PASSWORD"
	CodeUpdateUserEmailExists     = "UPDATE_USER_EMAIL_ALREADY_EXISTS"
	CodeChangePasswordBadCurrent  = "CHANGE_PASSWORD_BAD_CURRENT_PASSWORD"
	CodeChangePasswordInvalidPass = "CHANGE_PASSWORD_INVALID_PASSWORD"
	tokenTypeBearer               = "bearer"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register は新規ユーザーを登録し、確認メールを送信します。
	Register(ctx context.Context, email, password string) (*entity.User, error)
	// Login はユーザーを認証し、アクセストークンとリフレッシュトークンを返します。
	Login(ctx context.Context, creds usecase.Credentials) (*usecase.TokenPair, error)
	// Refresh はリフレッシュトークンから新しいアクセストークンを発行します。
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// RequestConfirmation は確認メールを再送します。
	RequestConfirmation(ctx context.Context, email string) error
	// ConfirmEmail は確認トークンを検証し、メールアドレスを確認済みにします。
	ConfirmEmail(ctx context.Context, token string) (*entity.User, error)
	// RequestPasswordReset はパスワード再設定メールを送信します。
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword は再設定トークンを検証し、パスワードを変更します。
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) (*entity.User, error)
	// UpdateProfile はログイン中のユーザーのプロフィールを更新します。
	UpdateProfile(ctx context.Context, user *entity.User, in usecase.UpdateProfileInput) (*entity.User, error)
	// ChangePassword は現在のパスワードを確認した上でパスワードを変更します。
	ChangePassword(ctx context.Context, user *entity.User, in usecase.ChangePasswordInput) (*entity.User, error)
	// DeleteUser はユーザーを削除します。
	DeleteUser(ctx context.Context, user *entity.User) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からAuthUsecaseを注入します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - メール重複・弱いパスワードは400とエラーコードを返却
// - 成功時は201とユーザー情報を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			slog.Warn("register failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeRegisterUserAlreadyExists})
		case errors.Is(err, usecase.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeRegisterInvalidPassword, Detail: err.Error()})
		default:
			internalError(c, "register", err)
		}
		return
	}
	slog.Info("user registered", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.NewUserRes(user))
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 認証失敗時は400 LOGIN_BAD_CREDENTIALSを返却（存在しないユーザーと区別しない）
// - メール未確認時は400 LOGIN_USER_NOT_VERIFIEDを返却
// - 成功時はトークンペア付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), usecase.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
			slog.Warn("login failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeLoginBadCredentials})
		case errors.Is(err, usecase.ErrUserEmailNotConfirmed):
			slog.Warn("login of unconfirmed user", "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeLoginUserNotVerified})
		default:
			internalError(c, "login", err)
		}
		return
	}
	c.JSON(http.StatusOK, dto.LoginRes{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    tokenTypeBearer,
	})
}

// Refresh はリフレッシュトークンで新しいアクセストークンを発行します。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshReq
	if !bindJSON(c, &req) {
		return
	}
	access, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			slog.Debug("refresh rejected", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: CodeRefreshBadToken})
			return
		}
		internalError(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, dto.RefreshRes{AccessToken: access, TokenType: tokenTypeBearer})
}

// RequestVerifyToken は確認メールの再送を受け付けます。
// 登録の有無を推測されないよう、常に202を返します。
func (h *AuthHandler) RequestVerifyToken(c *gin.Context) {
	var req dto.EmailReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.RequestConfirmation(c.Request.Context(), req.Email); err != nil {
		internalError(c, "request verify token", err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageRes{Message: "accepted"})
}

// Verify は確認トークンを検証してメールアドレスを確認済みにします。
func (h *AuthHandler) Verify(c *gin.Context) {
	var req dto.VerifyReq
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.auth.ConfirmEmail(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserAlreadyConfirmed):
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeVerifyUserAlreadyVerified})
		case errors.Is(err, usecase.ErrInvalidEmailConfirmationToken):
			slog.Warn("verify rejected", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeVerifyUserBadToken})
		default:
			internalError(c, "verify", err)
		}
		return
	}
	slog.Info("email confirmed", "user_id", user.ID)
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// ForgotPassword はパスワード再設定メールの送信を受け付けます。
// 登録の有無を推測されないよう、常に202を返します。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.EmailReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		internalError(c, "forgot password", err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageRes{Message: "accepted"})
}

// ResetPassword は再設定トークンでパスワードを変更します。
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordReq
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.auth.ResetPassword(c.Request.Context(), usecase.ResetPasswordInput{Token: req.Token, NewPassword: req.Password})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidResetPasswordToken),
			errors.Is(err, usecase.ErrInvalidResetPasswordTokenFingerprint):
			slog.Warn("reset password rejected", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeResetPasswordBadToken})
		case errors.Is(err, usecase.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeResetPasswordInvalidPass, Detail: err.Error()})
		default:
			internalError(c, "reset password", err)
		}
		return
	}
	slog.Info("password reset", "user_id", user.ID)
	c.JSON(http.StatusOK, dto.MessageRes{Message: "ok"})
}

// bindJSON はリクエストボディをreqにバインドします。失敗時は400を返却しfalseを返します。
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		slog.Warn("request validation failed", "path", c.FullPath(), "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeBadRequest, Detail: err.Error()})
		return false
	}
	return true
}

// internalError は想定外のエラーをログに記録し、詳細を隠して500を返却します。
func internalError(c *gin.Context, op string, err error) {
	slog.Error(op+" failed", "error", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: CodeInternal})
}
