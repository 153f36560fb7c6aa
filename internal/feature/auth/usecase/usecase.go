// Package usecase implements the authentication and credential-lifecycle
// flows of the auth feature: login, token refresh, email confirmation and
// password reset/change.
package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"account_backend/internal/feature/auth/domain/entity"
)

// UserFilter selects a single user. Non-empty fields must all match.
type UserFilter struct {
	ID    string
	Email string
}

// UserUpdate lists the fields to change. Nil fields are left untouched.
type UserUpdate struct {
	Email          *string
	HashedPassword *string
	ConfirmedEmail *bool
	LastLogin      *time.Time
}

// UserStore abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserStore interface {
	// ReadOne returns the user matching filter, or ErrUserNotFound.
	ReadOne(ctx context.Context, filter UserFilter) (*entity.User, error)

	// CreateAndRefresh persists user and returns it with server-assigned fields.
	// It returns ErrUserAlreadyExists when the email is taken.
	CreateAndRefresh(ctx context.Context, user *entity.User) (*entity.User, error)

	// UpdateAndRefresh applies update to user and returns the stored state.
	UpdateAndRefresh(ctx context.Context, user *entity.User, update UserUpdate) (*entity.User, error)

	// Delete removes user.
	Delete(ctx context.Context, user *entity.User) error
}

// TokenSigner creates and verifies signed, expiring claim sets.
type TokenSigner interface {
	// Create signs claims and adds issued-at and expiry claims.
	Create(claims map[string]any, expiration time.Duration) (string, error)
	// Read verifies token and returns its claims. It does not check the purpose claim.
	Read(token string) (map[string]any, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns a salted one-way hash of plaintext.
	Hash(ctx context.Context, plaintext string) (string, error)
	// VerifyAndMaybeRehash reports whether plaintext matches hash and, when the
	// hash is outdated, returns an upgraded one (empty otherwise).
	VerifyAndMaybeRehash(ctx context.Context, plaintext, hash string) (bool, string, error)
}

// Notifier is told about events that should reach the user by email.
// Implementations must not block on delivery; failures are theirs to log.
type Notifier interface {
	ConfirmationRequested(ctx context.Context, user *entity.User, token string)
	PasswordResetRequested(ctx context.Context, user *entity.User, token string)
	PasswordChanged(ctx context.Context, user *entity.User)
}

// Config carries the per-purpose token lifetimes and the clock.
type Config struct {
	Lifetimes TokenLifetimes
	// Now defaults to time.Now.
	Now func() time.Time
}

// AuthUsecase implements the auth flows on top of the injected collaborators.
// It keeps no mutable state; every call is independent.
type AuthUsecase struct {
	users     UserStore
	passwords PasswordHasher
	tokens    TokenSigner
	notifier  Notifier
	lifetimes TokenLifetimes
	now       func() time.Time

	// dummyHash is verified against when the email is unknown, so that path
	// costs the same as a real password check.
	dummyHash string
}

// dummyPassword only seeds dummyHash. No account can log in with it.
const dummyPassword = "account-backend-timing-equalizer"

// NewAuthUsecase creates an AuthUsecase. A nil notifier discards notifications.
func NewAuthUsecase(users UserStore, passwords PasswordHasher, tokens TokenSigner, notifier Notifier, cfg Config) *AuthUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	dummyHash, err := passwords.Hash(context.Background(), dummyPassword)
	if err != nil {
		slog.Error("failed to prepare dummy password hash", "error", err)
	}
	return &AuthUsecase{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		notifier:  notifier,
		lifetimes: cfg.Lifetimes.withDefaults(),
		now:       cfg.Now,
		dummyHash: dummyHash,
	}
}

// normalizeEmail makes email lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type nopNotifier struct{}

func (nopNotifier) ConfirmationRequested(context.Context, *entity.User, string)  {}
func (nopNotifier) PasswordResetRequested(context.Context, *entity.User, string) {}
func (nopNotifier) PasswordChanged(context.Context, *entity.User)                {}
