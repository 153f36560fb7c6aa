// Package jwtmw signs and verifies the service's purpose-tagged tokens and
// provides the gin middleware that authenticates bearer requests.
package jwtmw

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned by Read for any signature, structure or
	// expiry problem. Callers cannot tell an expired token from a forged one.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSigningKeyMissing is returned by Create on a verify-only Manager.
	ErrSigningKeyMissing = errors.New("signing key not configured")
)

// Config holds the key material and validation options for a Manager.
type Config struct {
	// PrivateKey is an Ed25519 private key (PKCS#8 PEM or 64 raw bytes).
	// Leave empty for a verify-only Manager.
	PrivateKey []byte
	// PublicKey is an Ed25519 public key (PKIX PEM or 32 raw bytes). It may be
	// omitted when PrivateKey is set.
	PublicKey []byte
	// Issuer, when set, is written to "iss" and required on Read.
	Issuer string
	// Leeway tolerates clock skew when checking exp.
	Leeway time.Duration
	// Now overrides the clock used for iat, exp and validation.
	Now func() time.Time
}

// Manager creates and reads EdDSA-signed JWTs.
// It holds no mutable state and is safe for concurrent use.
type Manager struct {
	signKey   ed25519.PrivateKey
	verifyKey ed25519.PublicKey
	issuer    string
	now       func() time.Time
	parser    *jwt.Parser
}

// NewManager validates cfg and creates a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{issuer: cfg.Issuer, now: cfg.Now}

	if len(cfg.PrivateKey) > 0 {
		key, err := ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		m.signKey = key
		m.verifyKey = key.Public().(ed25519.PublicKey)
	}
	if len(cfg.PublicKey) > 0 {
		key, err := ParsePublicKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		if m.verifyKey != nil && !m.verifyKey.Equal(key) {
			return nil, errors.New("public key does not match private key")
		}
		m.verifyKey = key
	}
	if m.verifyKey == nil {
		return nil, errors.New("ed25519 requires a private or public key")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	m.parser = jwt.NewParser(options...)

	return m, nil
}

// CanSign reports whether the Manager holds a private key.
func (m *Manager) CanSign() bool {
	return m.signKey != nil
}

// Create signs claims together with "iat" and "exp" (now + expiration).
// The caller's map is not modified.
func (m *Manager) Create(claims map[string]any, expiration time.Duration) (string, error) {
	if m.signKey == nil {
		return "", ErrSigningKeyMissing
	}
	if expiration <= 0 {
		return "", fmt.Errorf("token expiration must be positive, got %v", expiration)
	}

	now := m.now()
	payload := make(jwt.MapClaims, len(claims)+3)
	maps.Copy(payload, claims)
	payload["iat"] = now.Unix()
	payload["exp"] = now.Add(expiration).Unix()
	if m.issuer != "" {
		payload["iss"] = m.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, payload).SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Read verifies the signature and expiry of token and returns its claims.
// It does not check the purpose ("type") claim; that is up to the caller.
func (m *Manager) Read(token string) (map[string]any, error) {
	parsed, err := m.parser.Parse(token, func(*jwt.Token) (interface{}, error) {
		return m.verifyKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return map[string]any(claims), nil
}
