package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// minPasswordLength is the minimum number of characters in a password.
	minPasswordLength = 8
	// maxPasswordBytes is the bcrypt input limit.
	maxPasswordBytes = 72
)

// validatePassword checks a new password against the security requirements.
func validatePassword(password, email string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrWeakPassword, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes long", ErrWeakPassword, maxPasswordBytes)
	}
	if email != "" && strings.EqualFold(password, email) {
		return fmt.Errorf("%w: password must not be the email address", ErrWeakPassword)
	}
	return nil
}
