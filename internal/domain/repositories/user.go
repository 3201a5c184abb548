package repositories

import (
	"context"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
)

// UserRepository defines the narrow user contract the auth core needs
// from the content layer's schema.
type UserRepository interface {
	// GetByID retrieves a user; ErrUserNotFound when absent
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByProvider retrieves the user linked to a provider identity.
	// Returns nil, nil when no link exists (absence is not an error).
	GetByProvider(ctx context.Context, provider, providerID string) (*entities.User, error)

	// CreateWithAccount atomically inserts a user row and its first oauth
	// account row in one transaction; on failure neither row survives.
	CreateWithAccount(ctx context.Context, user *entities.User, account *entities.OAuthAccount) error

	// UpdateProfile applies the login-time profile sync to an existing user
	UpdateProfile(ctx context.Context, user *entities.User) error

	// List returns users ordered by creation time (admin surface)
	List(ctx context.Context, limit, offset int) ([]*entities.User, error)
}
