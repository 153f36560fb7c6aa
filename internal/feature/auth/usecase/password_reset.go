package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"account_backend/internal/feature/auth/domain/entity"
)

// ResetPasswordInput is the payload of a password reset.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ChangePasswordInput is the payload of an authenticated password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// Recover looks up email and calls onFound when the user exists. An unknown
// email is not an error and onFound is not called.
func (u *AuthUsecase) Recover(ctx context.Context, email string, onFound func(context.Context, *entity.User) error) error {
	user, err := u.users.ReadOne(ctx, UserFilter{Email: normalizeEmail(email)})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return onFound(ctx, user)
}

// RequestPasswordReset issues a reset token for email, if registered, and
// hands it to the notifier.
func (u *AuthUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	return u.Recover(ctx, email, func(ctx context.Context, user *entity.User) error {
		token, err := u.CreateResetToken(ctx, user.ID, user.HashedPassword)
		if err != nil {
			return err
		}
		u.notifier.PasswordResetRequested(ctx, user, token)
		return nil
	})
}

// CreateResetToken mints a reset-password token whose fingerprint is a hash of
// the password hash in effect now. Once the password changes, the fingerprint
// no longer verifies and the token is dead.
func (u *AuthUsecase) CreateResetToken(ctx context.Context, userID, currentHashedPassword string) (string, error) {
	fingerprint, err := u.passwords.Hash(ctx, fingerprintInput(currentHashedPassword))
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint password hash: %w", err)
	}
	return u.issueToken(TokenTypeResetPassword, userID, map[string]any{
		claimFingerprint: fingerprint,
	}, u.lifetimes.ResetPassword)
}

// fingerprintInput digests a stored password hash to 64 hex characters, which
// fits bcrypt's 72-byte input limit whatever the stored scheme.
func fingerprintInput(hashedPassword string) string {
	sum := sha256.Sum256([]byte(hashedPassword))
	return hex.EncodeToString(sum[:])
}

// ResetPassword redeems a reset token and sets a new password.
func (u *AuthUsecase) ResetPassword(ctx context.Context, in ResetPasswordInput) (*entity.User, error) {
	claims, err := u.readToken(in.Token, TokenTypeResetPassword, ErrInvalidResetPasswordToken)
	if err != nil {
		return nil, err
	}
	if claims.Fingerprint == "" {
		return nil, ErrInvalidResetPasswordToken
	}

	user, err := u.users.ReadOne(ctx, UserFilter{ID: claims.Subject})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResetPasswordToken, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	valid, _, err := u.passwords.VerifyAndMaybeRehash(ctx, fingerprintInput(user.HashedPassword), claims.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResetPasswordTokenFingerprint, err)
	}
	if !valid {
		return nil, ErrInvalidResetPasswordTokenFingerprint
	}

	return u.setPassword(ctx, user, in.NewPassword)
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one.
func (u *AuthUsecase) ChangePassword(ctx context.Context, user *entity.User, in ChangePasswordInput) (*entity.User, error) {
	valid, _, err := u.passwords.VerifyAndMaybeRehash(ctx, in.CurrentPassword, user.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password for user %s: %w", user.ID, err)
	}
	if !valid {
		return nil, ErrInvalidPassword
	}
	return u.setPassword(ctx, user, in.NewPassword)
}

func (u *AuthUsecase) setPassword(ctx context.Context, user *entity.User, password string) (*entity.User, error) {
	if err := validatePassword(password, user.Email); err != nil {
		return nil, err
	}

	hashed, err := u.passwords.Hash(ctx, password)
	if err != nil {
		return nil, err
	}
	user, err = u.users.UpdateAndRefresh(ctx, user, UserUpdate{HashedPassword: &hashed})
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	u.notifier.PasswordChanged(ctx, user)
	return user, nil
}
