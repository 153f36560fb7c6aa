package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/auth/domain/entity"
	"account_backend/internal/feature/auth/transport/http/dto"
	"account_backend/internal/feature/auth/usecase"
	jwtmw "account_backend/internal/platform/jwt"
)

// Me はログイン中のユーザー情報を返します。
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// UpdateMe はログイン中のユーザーのプロフィールを更新します。
// メールアドレスを変更すると未確認状態に戻り、新しいアドレスに確認メールが送られます。
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateUserReq
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.auth.UpdateProfile(c.Request.Context(), user, usecase.UpdateProfileInput{Email: req.Email})
	if err != nil {
		if errors.Is(err, usecase.ErrUserAlreadyExists) {
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeUpdateUserEmailExists})
			return
		}
		internalError(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(updated))
}

// ChangePassword はログイン中のユーザーのパスワードを変更します。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordReq
	if !bindJSON(c, &req) {
		return
	}
	_, err := h.auth.ChangePassword(c.Request.Context(), user, usecase.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidPassword):
			slog.Warn("change password rejected", "user_id", user.ID, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeChangePasswordBadCurrent})
		case errors.Is(err, usecase.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: CodeChangePasswordInvalidPass, Detail: err.Error()})
		default:
			internalError(c, "change password", err)
		}
		return
	}
	slog.Info("password changed", "user_id", user.ID)
	c.JSON(http.StatusOK, dto.MessageRes{Message: "ok"})
}

// DeleteMe はログイン中のユーザーを削除します。
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.auth.DeleteUser(c.Request.Context(), user); err != nil {
		internalError(c, "delete user", err)
		return
	}
	slog.Info("user deleted", "user_id", user.ID)
	c.Status(http.StatusNoContent)
}

// currentUser はAuthRequiredミドルウェアが設定したユーザーを取り出します。
// 取り出せない場合は401を返却しfalseを返します。
func currentUser(c *gin.Context) (*entity.User, bool) {
	v, _ := c.Get(jwtmw.ContextUser)
	user, ok := v.(*entity.User)
	if !ok || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorRes{Error: CodeUnauthorized})
		return nil, false
	}
	return user, true
}
