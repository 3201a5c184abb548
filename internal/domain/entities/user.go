package entities

import "time"

// User represents a platform user. Accounts are created exclusively
// through OAuth login; there is no password.
type User struct {
	ID          string    `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName string    `json:"displayName" db:"display_name"`
	AvatarURL   *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	Email       *string   `json:"email,omitempty" db:"email"`
	Bio         *string   `json:"bio,omitempty" db:"bio"`
	IsAdmin     bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
