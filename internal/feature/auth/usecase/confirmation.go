package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"account_backend/internal/feature/auth/domain/entity"
)

// CreateConfirmationToken mints an email-confirmation token bound to both the
// user id and the email address it is sent to.
func (u *AuthUsecase) CreateConfirmationToken(userID, email string) (string, error) {
	return u.issueToken(TokenTypeEmailConfirmation, userID, map[string]any{
		claimEmail: email,
	}, u.lifetimes.EmailConfirmation)
}

// SendConfirmation mints a confirmation token for user and hands it to the notifier.
func (u *AuthUsecase) SendConfirmation(ctx context.Context, user *entity.User) (string, error) {
	token, err := u.CreateConfirmationToken(user.ID, user.Email)
	if err != nil {
		return "", err
	}
	u.notifier.ConfirmationRequested(ctx, user, token)
	return token, nil
}

// RequestConfirmation re-sends the confirmation email. Unknown or already
// confirmed addresses are ignored without an error, so the response does not
// reveal whether the address is registered.
func (u *AuthUsecase) RequestConfirmation(ctx context.Context, email string) error {
	user, err := u.users.ReadOne(ctx, UserFilter{Email: normalizeEmail(email)})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.ConfirmedEmail {
		slog.Debug("confirmation requested for confirmed user", "user_id", user.ID)
		return nil
	}
	_, err = u.SendConfirmation(ctx, user)
	return err
}

// ConfirmEmail redeems a confirmation token and marks the user confirmed.
//
// The user is looked up by both the token's subject and email, so a token sent
// to a previous address stops working once the email changes. Confirming twice
// returns ErrUserAlreadyConfirmed.
func (u *AuthUsecase) ConfirmEmail(ctx context.Context, token string) (*entity.User, error) {
	claims, err := u.readToken(token, TokenTypeEmailConfirmation, ErrInvalidEmailConfirmationToken)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, ErrInvalidEmailConfirmationToken
	}

	user, err := u.users.ReadOne(ctx, UserFilter{ID: claims.Subject, Email: claims.Email})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEmailConfirmationToken, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.ConfirmedEmail {
		return nil, ErrUserAlreadyConfirmed
	}

	confirmed := true
	user, err = u.users.UpdateAndRefresh(ctx, user, UserUpdate{ConfirmedEmail: &confirmed})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}
	return user, nil
}
