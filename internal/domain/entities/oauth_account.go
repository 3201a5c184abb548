package entities

import "time"

// OAuthAccount links a platform user to one third-party identity.
// A given (provider, provider_id) pair maps to at most one user; a user
// may hold one account per provider but always keeps at least one.
type OAuthAccount struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"userId" db:"user_id"`
	Provider         string    `json:"provider" db:"provider"`
	ProviderID       string    `json:"providerId" db:"provider_id"`
	ProviderUsername *string   `json:"providerUsername,omitempty" db:"provider_username"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}
