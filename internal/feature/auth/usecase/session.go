package usecase

import (
	"context"
	"errors"
	"fmt"

	"account_backend/internal/feature/auth/domain/entity"
)

// Login authenticates creds and issues an access/refresh token pair.
// Errors from Authenticate are returned unchanged.
func (u *AuthUsecase) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	user, err := u.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	access, err := u.issueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := u.issueToken(TokenTypeRefresh, user.ID, nil, u.lifetimes.Refresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token for the same subject.
// The user is not re-fetched; CurrentUser does that on every authenticated request.
func (u *AuthUsecase) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := u.readToken(refreshToken, TokenTypeRefresh, ErrInvalidRefreshToken)
	if err != nil {
		return "", err
	}
	return u.issueAccessToken(claims.Subject)
}

// CurrentUser resolves the user an access token was issued for. The user must
// still exist and be confirmed.
func (u *AuthUsecase) CurrentUser(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := u.readToken(accessToken, TokenTypeAccess, ErrInvalidAccessToken)
	if err != nil {
		return nil, err
	}

	user, err := u.users.ReadOne(ctx, UserFilter{ID: claims.Subject})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.ConfirmedEmail {
		return nil, ErrUserEmailNotConfirmed
	}
	return user, nil
}
