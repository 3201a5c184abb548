package services

import "errors"

var (
	// ErrInvalidRefreshToken covers every refresh failure mode: unknown,
	// expired, revoked and wrong-type tokens all fail identically so the
	// response leaks nothing about which one it was.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrAccountAlreadyLinked is returned when a provider identity is
	// already owned by a different user than the linking actor
	ErrAccountAlreadyLinked = errors.New("account already linked to another user")

	// ErrLastAccount is returned when unlinking would remove a user's
	// only authentication method
	ErrLastAccount = errors.New("cannot unlink last oauth account")
)
