package usecase

import (
	"context"
	"errors"
	"fmt"

	"account_backend/internal/feature/auth/domain/entity"
)

// Credentials is a plaintext email/password pair used for a single
// authentication attempt.
type Credentials struct {
	Email    string
	Password string
}

// Authenticate validates creds and returns the matching, confirmed user.
//
// A password verification runs exactly once whether or not the email exists,
// against a dummy hash at the configured cost when it does not, so response
// latency does not reveal registered addresses. The confirmation check
// happens only after the password verified. On success an outdated password
// hash is upgraded and last_login is updated.
func (u *AuthUsecase) Authenticate(ctx context.Context, creds Credentials) (*entity.User, error) {
	user, err := u.users.ReadOne(ctx, UserFilter{Email: normalizeEmail(creds.Email)})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		// The result is discarded; only the cost matters.
		_, _, _ = u.passwords.VerifyAndMaybeRehash(ctx, creds.Password, u.dummyHash)
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrUserNotFound)
	}

	valid, newHash, err := u.passwords.VerifyAndMaybeRehash(ctx, creds.Password, user.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password for user %s: %w", user.ID, err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		user, err = u.users.UpdateAndRefresh(ctx, user, UserUpdate{HashedPassword: &newHash})
		if err != nil {
			return nil, fmt.Errorf("failed to upgrade password hash: %w", err)
		}
	}

	if !user.ConfirmedEmail {
		return nil, ErrUserEmailNotConfirmed
	}

	now := u.now()
	user, err = u.users.UpdateAndRefresh(ctx, user, UserUpdate{LastLogin: &now})
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}
