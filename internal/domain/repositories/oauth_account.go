package repositories

import (
	"context"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
)

// OAuthAccountRepository defines data access for provider links
type OAuthAccountRepository interface {
	// Upsert inserts or, on (provider, provider_id) conflict, refreshes
	// only the denormalized provider_username.
	Upsert(ctx context.Context, account *entities.OAuthAccount) error

	// ListByUserID retrieves all accounts linked to a user, oldest first
	ListByUserID(ctx context.Context, userID string) ([]*entities.OAuthAccount, error)

	// CountByUserID counts a user's linked accounts; used to refuse
	// unlinking the last one
	CountByUserID(ctx context.Context, userID string) (int, error)

	// Delete removes the user's link for one provider;
	// ErrAccountNotFound when no such link exists
	Delete(ctx context.Context, userID, provider string) error
}
