package usecase

import "errors"

// Error kinds returned by the auth flows. Flows may wrap several of them
// (for example ErrInvalidCredentials together with ErrUserNotFound) so that
// callers can match the coarse kind with errors.Is while logs keep the detail.
var (
	// ErrUserNotFound is returned when no user matches the lookup filter.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when creating or updating a user would
	// duplicate an existing email.
	ErrUserAlreadyExists = errors.New("user with this email already exists")

	// ErrUserEmailNotConfirmed is returned when a user with valid credentials
	// has not confirmed their email yet.
	ErrUserEmailNotConfirmed = errors.New("user email not confirmed")

	// ErrUserAlreadyConfirmed is returned when redeeming a confirmation token
	// for a user who is already confirmed.
	ErrUserAlreadyConfirmed = errors.New("user already confirmed")

	// ErrInvalidCredentials is returned by login when the email/password pair
	// does not authenticate.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidPassword is returned when the current password supplied for a
	// password change does not match.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrWeakPassword is returned when a new password violates the password policy.
	ErrWeakPassword = errors.New("password does not meet requirements")

	// ErrInvalidToken is returned when a token fails signature, structure or
	// expiry checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidAccessToken is returned when a bearer token is not a valid access token.
	ErrInvalidAccessToken = errors.New("invalid access token")

	// ErrInvalidRefreshToken is returned when a refresh token is invalid or malformed.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrInvalidEmailConfirmationToken is returned when a confirmation token is
	// invalid or no longer matches its user.
	ErrInvalidEmailConfirmationToken = errors.New("invalid email confirmation token")

	// ErrInvalidResetPasswordToken is returned when a reset token is invalid or
	// its user no longer exists.
	ErrInvalidResetPasswordToken = errors.New("invalid reset password token")

	// ErrInvalidResetPasswordTokenFingerprint is returned when the password
	// changed after the reset token was issued.
	ErrInvalidResetPasswordTokenFingerprint = errors.New("reset password token fingerprint mismatch")
)
