package dto

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"account_backend/internal/feature/auth/domain/entity"
)

// UserRes はユーザー情報のレスポンスです。パスワードハッシュは含みません。
type UserRes struct {
	ID             openapi_types.UUID  `json:"id"`
	Email          openapi_types.Email `json:"email"`
	ConfirmedEmail bool                `json:"confirmed_email"`
	LastLogin      *time.Time          `json:"last_login,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// NewUserRes はエンティティからレスポンスを生成します。
// IDがUUIDとして解釈できない場合はゼロ値になります。
func NewUserRes(u *entity.User) UserRes {
	id, _ := uuid.Parse(u.ID)
	return UserRes{
		ID:             id,
		Email:          openapi_types.Email(u.Email),
		ConfirmedEmail: u.ConfirmedEmail,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
	}
}

// UpdateUserReq はPATCH /users/meのリクエストボディです。省略したフィールドは変更しません。
type UpdateUserReq struct {
	Email *string `json:"email" binding:"omitempty,email"`
}

// ChangePasswordReq はPOST /users/me/passwordのリクエストボディです。
type ChangePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}
