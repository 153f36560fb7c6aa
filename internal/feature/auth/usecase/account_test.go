package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthUsecase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an unconfirmed user and sends confirmation", func(t *testing.T) {
		env := newTestEnv(t)

		user, err := env.uc.Register(ctx, " A@X.com ", "password123")

		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "a@x.com", user.Email)
		assert.False(t, user.ConfirmedEmail)
		assert.NotEqual(t, "password123", user.HashedPassword)
		assert.NotEmpty(t, env.notifier.confirmationFor("a@x.com"))
	})

	t.Run("end to end: register, confirm, login", func(t *testing.T) {
		env := newTestEnv(t)

		user, err := env.uc.Register(ctx, "a@x.com", "password123")
		require.NoError(t, err)

		_, err = env.uc.Login(ctx, Credentials{Email: "a@x.com", Password: "password123"})
		require.ErrorIs(t, err, ErrUserEmailNotConfirmed)

		confirmed, err := env.uc.ConfirmEmail(ctx, env.notifier.confirmationFor("a@x.com"))
		require.NoError(t, err)
		assert.True(t, confirmed.ConfirmedEmail)

		pair, err := env.uc.Login(ctx, Credentials{Email: "a@x.com", Password: "password123"})
		require.NoError(t, err)
		current, err := env.uc.CurrentUser(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, current.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser(t, "a@x.com", "password123", true)

		_, err := env.uc.Register(ctx, "A@x.com", "password123")

		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("weak passwords", func(t *testing.T) {
		env := newTestEnv(t)

		for _, pw := range []string{"", "short", strings.Repeat("x", 73), "a@x.com"} {
			_, err := env.uc.Register(ctx, "a@x.com", pw)
			assert.ErrorIs(t, err, ErrWeakPassword, "password %q", pw)
		}
		assert.Equal(t, int32(0), env.hasher.hashCalls.Load(), "weak passwords must not be hashed")
	})
}

func TestAuthUsecase_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("email change resets confirmation and sends a new token", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "a@x.com", "password123", true)
		email := "B@x.com"

		updated, err := env.uc.UpdateProfile(ctx, user, UpdateProfileInput{Email: &email})

		require.NoError(t, err)
		assert.Equal(t, "b@x.com", updated.Email)
		assert.False(t, updated.ConfirmedEmail)

		token := env.notifier.confirmationFor("b@x.com")
		require.NotEmpty(t, token)
		confirmed, err := env.uc.ConfirmEmail(ctx, token)
		require.NoError(t, err)
		assert.True(t, confirmed.ConfirmedEmail)
	})

	t.Run("same email is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "a@x.com", "password123", true)
		email := "A@X.COM"

		updated, err := env.uc.UpdateProfile(ctx, user, UpdateProfileInput{Email: &email})

		require.NoError(t, err)
		assert.True(t, updated.ConfirmedEmail)
		assert.Equal(t, 0, env.store.updates)
	})

	t.Run("email already taken", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "a@x.com", "password123", true)
		env.createUser(t, "b@x.com", "password123", true)
		email := "b@x.com"

		_, err := env.uc.UpdateProfile(ctx, user, UpdateProfileInput{Email: &email})

		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})
}

func TestAuthUsecase_DeleteUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.createUser(t, "a@x.com", "password123", true)

	require.NoError(t, env.uc.DeleteUser(ctx, user))

	_, err := env.store.ReadOne(ctx, UserFilter{ID: user.ID})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, env.uc.DeleteUser(ctx, user), ErrUserNotFound)
}
