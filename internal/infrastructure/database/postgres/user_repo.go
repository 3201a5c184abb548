package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
)

// UserRepository implements repositories.UserRepository for PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, display_name, avatar_url, email, bio, is_admin, created_at, updated_at`

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetByProvider retrieves the user linked to a provider identity.
// Returns nil, nil when no link exists.
func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerID string) (*entities.User, error) {
	var user entities.User
	query := `
		SELECT u.id, u.username, u.display_name, u.avatar_url, u.email, u.bio,
		       u.is_admin, u.created_at, u.updated_at
		FROM users u
		JOIN oauth_accounts oa ON u.id = oa.user_id
		WHERE oa.provider = $1 AND oa.provider_id = $2
	`

	err := r.db.GetContext(ctx, &user, query, provider, providerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by provider: %w", err)
	}

	return &user, nil
}

// CreateWithAccount inserts a user and its first oauth account in one
// transaction. A failure rolls both back; no orphaned user or link ever
// becomes visible.
func (r *UserRepository) CreateWithAccount(ctx context.Context, user *entities.User, account *entities.OAuthAccount) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (id, username, display_name, avatar_url, email, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, userQuery,
		user.ID, user.Username, user.DisplayName, user.AvatarURL, user.Email,
		user.IsAdmin, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	accountQuery := `
		INSERT INTO oauth_accounts (id, user_id, provider, provider_id, provider_username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, accountQuery,
		account.ID, account.UserID, account.Provider, account.ProviderID,
		account.ProviderUsername, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert oauth account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user creation: %w", err)
	}
	return nil
}

// UpdateProfile applies the login-time profile sync
func (r *UserRepository) UpdateProfile(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET display_name = $1, avatar_url = $2, email = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		user.DisplayName, user.AvatarURL, user.Email, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repositories.ErrUserNotFound
	}
	return nil
}

// List returns users ordered by creation time, newest first
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	var users []*entities.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	err := r.db.SelectContext(ctx, &users, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

var _ repositories.UserRepository = (*UserRepository)(nil)
