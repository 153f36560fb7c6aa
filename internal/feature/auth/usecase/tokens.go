package usecase

import (
	"fmt"
	"time"
)

// Token purpose tags carried in the "type" claim.
const (
	TokenTypeAccess            = "access"
	TokenTypeRefresh           = "refresh"
	TokenTypeEmailConfirmation = "email-confirmation"
	TokenTypeResetPassword     = "reset-password"
)

const (
	claimSubject     = "sub"
	claimType        = "type"
	claimEmail       = "email"
	claimFingerprint = "fingerprint"
)

// TokenLifetimes configures how long each kind of token stays valid.
type TokenLifetimes struct {
	Access            time.Duration
	Refresh           time.Duration
	EmailConfirmation time.Duration
	ResetPassword     time.Duration
}

// DefaultTokenLifetimes returns the lifetimes used when none are configured.
func DefaultTokenLifetimes() TokenLifetimes {
	return TokenLifetimes{
		Access:            15 * time.Minute,
		Refresh:           7 * 24 * time.Hour,
		EmailConfirmation: 24 * time.Hour,
		ResetPassword:     time.Hour,
	}
}

func (l TokenLifetimes) withDefaults() TokenLifetimes {
	d := DefaultTokenLifetimes()
	if l.Access <= 0 {
		l.Access = d.Access
	}
	if l.Refresh <= 0 {
		l.Refresh = d.Refresh
	}
	if l.EmailConfirmation <= 0 {
		l.EmailConfirmation = d.EmailConfirmation
	}
	if l.ResetPassword <= 0 {
		l.ResetPassword = d.ResetPassword
	}
	return l
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// tokenClaims is the typed view of a verified token.
type tokenClaims struct {
	Subject     string
	Email       string
	Fingerprint string
}

func (u *AuthUsecase) issueToken(tokenType, subject string, extra map[string]any, lifetime time.Duration) (string, error) {
	claims := map[string]any{
		claimSubject: subject,
		claimType:    tokenType,
	}
	for k, v := range extra {
		claims[k] = v
	}
	token, err := u.tokens.Create(claims, lifetime)
	if err != nil {
		return "", fmt.Errorf("failed to create %s token: %w", tokenType, err)
	}
	return token, nil
}

func (u *AuthUsecase) issueAccessToken(subject string) (string, error) {
	return u.issueToken(TokenTypeAccess, subject, nil, u.lifetimes.Access)
}

// readToken verifies token and requires its purpose to be wantType.
// Any failure is reported as kind, so a token minted for one flow is never
// accepted by another.
func (u *AuthUsecase) readToken(token, wantType string, kind error) (*tokenClaims, error) {
	claims, err := u.tokens.Read(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kind, ErrInvalidToken)
	}
	if tokenType, _ := claims[claimType].(string); tokenType != wantType {
		return nil, kind
	}

	subject, _ := claims[claimSubject].(string)
	if subject == "" {
		return nil, kind
	}
	email, _ := claims[claimEmail].(string)
	fingerprint, _ := claims[claimFingerprint].(string)

	return &tokenClaims{Subject: subject, Email: email, Fingerprint: fingerprint}, nil
}
