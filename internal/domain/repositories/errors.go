package repositories

import "errors"

// Domain-specific repository errors
var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountNotFound is returned when an oauth account cannot be found
	ErrAccountNotFound = errors.New("oauth account not found")

	// ErrTokenNotFound is returned when a refresh token cannot be found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenRevoked is returned when a rotation loses a race and finds
	// its input token already revoked
	ErrTokenRevoked = errors.New("refresh token already revoked")
)
