package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"account_backend/internal/feature/auth/domain/entity"
)

// UpdateProfileInput lists the profile fields a user may change. Nil fields are kept.
type UpdateProfileInput struct {
	Email *string
}

// Register creates an unconfirmed user and sends the confirmation email.
func (u *AuthUsecase) Register(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	if err := validatePassword(password, email); err != nil {
		return nil, err
	}

	hashed, err := u.passwords.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user, err := u.users.CreateAndRefresh(ctx, &entity.User{Email: email, HashedPassword: hashed})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// The account exists at this point; a failed email can be re-requested.
	if _, err := u.SendConfirmation(ctx, user); err != nil {
		slog.Error("failed to send confirmation", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// UpdateProfile applies in to user. Changing the email resets the
// confirmation state and sends a confirmation to the new address.
func (u *AuthUsecase) UpdateProfile(ctx context.Context, user *entity.User, in UpdateProfileInput) (*entity.User, error) {
	if in.Email == nil || normalizeEmail(*in.Email) == user.Email {
		return user, nil
	}

	email := normalizeEmail(*in.Email)
	unconfirmed := false
	updated, err := u.users.UpdateAndRefresh(ctx, user, UserUpdate{Email: &email, ConfirmedEmail: &unconfirmed})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if _, err := u.SendConfirmation(ctx, updated); err != nil {
		slog.Error("failed to send confirmation", "user_id", updated.ID, "error", err)
	}
	return updated, nil
}

// DeleteUser removes user.
func (u *AuthUsecase) DeleteUser(ctx context.Context, user *entity.User) error {
	if err := u.users.Delete(ctx, user); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
