// Package password hashes and verifies user credentials.
//
// New hashes are always bcrypt. Stored hashes produced with a different bcrypt
// cost, or with the legacy argon2id scheme, still verify but are reported as
// outdated so the caller can persist the returned replacement hash.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMalformedHash is returned when a stored hash cannot be decoded.
	// It indicates corrupted data or a misconfiguration, not a wrong password.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Config holds the work factor and worker pool settings.
type Config struct {
	// Cost is the bcrypt cost for new hashes.
	Cost int
	// Workers bounds how many hash computations run concurrently.
	Workers int
}

// DefaultConfig returns bcrypt.DefaultCost and one worker per CPU.
func DefaultConfig() Config {
	return Config{Cost: bcrypt.DefaultCost, Workers: runtime.NumCPU()}
}

// Hasher implements hashing and verify-with-rehash on a bounded worker pool.
// It is safe for concurrent use.
type Hasher struct {
	cost int
	pool *pool
}

// NewHasher validates cfg and creates a Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.Cost)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Hasher{cost: cfg.Cost, pool: newPool(cfg.Workers)}, nil
}

// Hash returns a self-salting bcrypt hash of plaintext.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	var hashed []byte
	err := h.pool.do(ctx, func() error {
		var err error
		hashed, err = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyAndMaybeRehash reports whether plaintext matches encoded. When it does
// and encoded was produced with an outdated cost or scheme, a fresh hash is
// returned as newHash; otherwise newHash is empty. A plaintext bcrypt cannot
// take (over 72 bytes, only possible for legacy argon2id hashes) still
// verifies, but is not upgraded.
func (h *Hasher) VerifyAndMaybeRehash(ctx context.Context, plaintext, encoded string) (bool, string, error) {
	var (
		valid    bool
		outdated bool
	)
	err := h.pool.do(ctx, func() error {
		var err error
		valid, outdated, err = h.verify(plaintext, encoded)
		return err
	})
	if err != nil {
		return false, "", err
	}
	if !valid || !outdated {
		return valid, "", nil
	}

	newHash, err := h.Hash(ctx, plaintext)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return true, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return true, newHash, nil
}

func (h *Hasher) verify(plaintext, encoded string) (valid, outdated bool, err error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		ok, err := verifyArgon2id(plaintext, encoded)
		return ok, true, err
	case strings.HasPrefix(encoded, "$2"):
		cost, err := bcrypt.Cost([]byte(encoded))
		if err != nil {
			return false, false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
		err = bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
		switch {
		case err == nil:
			return true, cost != h.cost, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
			return false, false, nil
		default:
			return false, false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
	default:
		return false, false, ErrMalformedHash
	}
}
