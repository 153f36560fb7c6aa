// Package di はアプリケーションコンポーネントを組み立てるファクトリー関数を提供します。
package di

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"account_backend/internal/config"
	authadapters "account_backend/internal/feature/auth/adapters"
	"account_backend/internal/feature/auth/usecase"
	jwtmw "account_backend/internal/platform/jwt"
	"account_backend/internal/platform/password"
)

// NewAuthUsecase は設定からハッシャー・トークン署名・ユーザーストア・通知を組み立て、AuthUsecaseを生成します。
func NewAuthUsecase(cfg *config.Config, db *gorm.DB, queue authadapters.MailQueue) (*usecase.AuthUsecase, error) {
	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := jwtmw.NewManager(jwtmw.Config{
		PrivateKey: cfg.JWT.PrivateKey,
		PublicKey:  cfg.JWT.PublicKey,
		Issuer:     cfg.JWT.Issuer,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	if !tokens.CanSign() {
		return nil, jwtmw.ErrSigningKeyMissing
	}

	users := authadapters.NewUserGorm(db)
	notifier := authadapters.NewEmailNotifier(queue, cfg.Frontend)
	return usecase.NewAuthUsecase(users, hasher, tokens, notifier, usecase.Config{Lifetimes: cfg.Lifetimes}), nil
}

// ResolveUser はAuthRequiredミドルウェア用に、アクセストークンからユーザーを解決する関数を返します。
func ResolveUser(uc *usecase.AuthUsecase) jwtmw.ResolveFunc {
	return func(ctx context.Context, token string) (any, error) {
		return uc.CurrentUser(ctx, token)
	}
}
