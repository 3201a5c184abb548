package repositories

import (
	"context"
	"time"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
)

// RefreshTokenRepository defines data access for persisted refresh tokens
type RefreshTokenRepository interface {
	// Create inserts a new active token row
	Create(ctx context.Context, token *entities.RefreshToken) error

	// GetActive retrieves the active (unrevoked, unexpired) row for the
	// exact (userID, token) pair. Returns nil, nil when no such row exists.
	GetActive(ctx context.Context, userID, token string) (*entities.RefreshToken, error)

	// Rotate revokes oldToken and inserts newToken in one transaction.
	// The revocation re-checks that the old token is still active inside
	// the transaction: of two concurrent rotations presenting the same
	// token, exactly one succeeds and the loser gets ErrTokenRevoked.
	Rotate(ctx context.Context, userID, oldToken string, newToken *entities.RefreshToken) error

	// Revoke marks one active token as revoked. Revoking a token that is
	// already revoked or unknown is a no-op.
	Revoke(ctx context.Context, userID, token string) error

	// RevokeAll marks every active token for the user as revoked
	RevokeAll(ctx context.Context, userID string) error

	// DeleteExpiredAndRevoked removes rows that expired before the given
	// time or are already revoked. Returns the number of rows deleted.
	DeleteExpiredAndRevoked(ctx context.Context, before time.Time) (int64, error)
}
