package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"account_backend/internal/feature/auth/domain/entity"
	jwtmw "account_backend/internal/platform/jwt"
	"account_backend/internal/platform/password"
)

// memoryUserStore is an in-memory UserStore used by the flow tests.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]entity.User

	// readErr, when set, is returned by every ReadOne call.
	readErr error
	// updates counts UpdateAndRefresh calls.
	updates int
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]entity.User)}
}

func (s *memoryUserStore) ReadOne(_ context.Context, filter UserFilter) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return nil, s.readErr
	}
	for _, u := range s.users {
		if filter.ID != "" && u.ID != filter.ID {
			continue
		}
		if filter.Email != "" && u.Email != filter.Email {
			continue
		}
		found := u
		return &found, nil
	}
	return nil, ErrUserNotFound
}

func (s *memoryUserStore) CreateAndRefresh(_ context.Context, user *entity.User) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, ErrUserAlreadyExists
		}
	}
	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.users[created.ID] = created
	return &created, nil
}

func (s *memoryUserStore) UpdateAndRefresh(_ context.Context, user *entity.User, update UserUpdate) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++
	stored, ok := s.users[user.ID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if update.Email != nil {
		for id, u := range s.users {
			if id != user.ID && u.Email == *update.Email {
				return nil, ErrUserAlreadyExists
			}
		}
		stored.Email = *update.Email
	}
	if update.HashedPassword != nil {
		stored.HashedPassword = *update.HashedPassword
	}
	if update.ConfirmedEmail != nil {
		stored.ConfirmedEmail = *update.ConfirmedEmail
	}
	if update.LastLogin != nil {
		lastLogin := *update.LastLogin
		stored.LastLogin = &lastLogin
	}
	stored.UpdatedAt = time.Now()
	s.users[user.ID] = stored

	refreshed := stored
	return &refreshed, nil
}

func (s *memoryUserStore) Delete(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, user.ID)
	return nil
}

// get returns the stored state of a user, bypassing filters.
func (s *memoryUserStore) get(id string) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// countingHasher wraps a PasswordHasher and counts calls.
type countingHasher struct {
	PasswordHasher
	hashCalls   atomic.Int32
	verifyCalls atomic.Int32
}

func (h *countingHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	h.hashCalls.Add(1)
	return h.PasswordHasher.Hash(ctx, plaintext)
}

func (h *countingHasher) VerifyAndMaybeRehash(ctx context.Context, plaintext, hash string) (bool, string, error) {
	h.verifyCalls.Add(1)
	return h.PasswordHasher.VerifyAndMaybeRehash(ctx, plaintext, hash)
}

func (h *countingHasher) reset() {
	h.hashCalls.Store(0)
	h.verifyCalls.Store(0)
}

// recordingNotifier keeps the tokens handed to it.
type recordingNotifier struct {
	mu            sync.Mutex
	confirmations map[string]string
	resets        map[string]string
	changed       []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{confirmations: map[string]string{}, resets: map[string]string{}}
}

func (n *recordingNotifier) ConfirmationRequested(_ context.Context, user *entity.User, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations[user.Email] = token
}

func (n *recordingNotifier) PasswordResetRequested(_ context.Context, user *entity.User, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets[user.Email] = token
}

func (n *recordingNotifier) PasswordChanged(_ context.Context, user *entity.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, user.ID)
}

func (n *recordingNotifier) confirmationFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.confirmations[email]
}

func (n *recordingNotifier) resetFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resets[email]
}

// testEnv bundles an AuthUsecase with its collaborators.
type testEnv struct {
	uc       *AuthUsecase
	store    *memoryUserStore
	hasher   *countingHasher
	tokens   *jwtmw.Manager
	notifier *recordingNotifier
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	h, err := password.NewHasher(password.Config{Cost: bcrypt.MinCost, Workers: 4})
	require.NoError(t, err)
	priv, _, err := jwtmw.GenerateKeyPair()
	require.NoError(t, err)
	tokens, err := jwtmw.NewManager(jwtmw.Config{PrivateKey: priv})
	require.NoError(t, err)

	env := &testEnv{
		store:    newMemoryUserStore(),
		hasher:   &countingHasher{PasswordHasher: h},
		tokens:   tokens,
		notifier: newRecordingNotifier(),
		now:      time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	env.uc = NewAuthUsecase(env.store, env.hasher, env.tokens, env.notifier, Config{
		Lifetimes: DefaultTokenLifetimes(),
		Now:       func() time.Time { return env.now },
	})
	// Drop the dummy-hash preparation done by the constructor.
	env.hasher.reset()
	return env
}

// createUser stores a user with a hashed password directly in the store.
func (e *testEnv) createUser(t *testing.T, email, plaintext string, confirmed bool) *entity.User {
	t.Helper()
	hashed, err := e.hasher.PasswordHasher.Hash(context.Background(), plaintext)
	require.NoError(t, err)
	user, err := e.store.CreateAndRefresh(context.Background(), &entity.User{
		Email:          email,
		HashedPassword: hashed,
		ConfirmedEmail: confirmed,
	})
	require.NoError(t, err)
	return user
}

// mint signs a token with arbitrary claims using the env's signer.
func (e *testEnv) mint(t *testing.T, claims map[string]any) string {
	t.Helper()
	token, err := e.tokens.Create(claims, time.Hour)
	require.NoError(t, err)
	return token
}

// createLegacyUser stores a user whose password hash is in the legacy PHC
// argon2id format.
func (e *testEnv) createLegacyUser(t *testing.T, email, plaintext string) *entity.User {
	t.Helper()
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte(plaintext), salt, 1, 8*1024, 1, 32)
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 8*1024, 1, 1,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
	user, err := e.store.CreateAndRefresh(context.Background(), &entity.User{
		Email:          email,
		HashedPassword: encoded,
		ConfirmedEmail: true,
	})
	require.NoError(t, err)
	return user
}
