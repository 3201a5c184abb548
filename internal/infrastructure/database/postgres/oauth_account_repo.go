package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
)

// OAuthAccountRepository implements repositories.OAuthAccountRepository
// for PostgreSQL
type OAuthAccountRepository struct {
	db *sqlx.DB
}

// NewOAuthAccountRepository creates a new PostgreSQL oauth account repository
func NewOAuthAccountRepository(db *sqlx.DB) *OAuthAccountRepository {
	return &OAuthAccountRepository{db: db}
}

// Upsert inserts or, on (provider, provider_id) conflict, refreshes only
// the denormalized provider_username.
func (r *OAuthAccountRepository) Upsert(ctx context.Context, account *entities.OAuthAccount) error {
	query := `
		INSERT INTO oauth_accounts (id, user_id, provider, provider_id, provider_username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			provider_username = EXCLUDED.provider_username
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.UserID, account.Provider, account.ProviderID,
		account.ProviderUsername, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert oauth account: %w", err)
	}
	return nil
}

// ListByUserID retrieves all accounts linked to a user, oldest first
func (r *OAuthAccountRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.OAuthAccount, error) {
	var accounts []*entities.OAuthAccount
	query := `
		SELECT id, user_id, provider, provider_id, provider_username, created_at
		FROM oauth_accounts
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	err := r.db.SelectContext(ctx, &accounts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list oauth accounts: %w", err)
	}
	return accounts, nil
}

// CountByUserID counts a user's linked accounts
func (r *OAuthAccountRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM oauth_accounts WHERE user_id = $1`

	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count oauth accounts: %w", err)
	}
	return count, nil
}

// Delete removes the user's link for one provider
func (r *OAuthAccountRepository) Delete(ctx context.Context, userID, provider string) error {
	query := `DELETE FROM oauth_accounts WHERE user_id = $1 AND provider = $2`

	result, err := r.db.ExecContext(ctx, query, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete oauth account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repositories.ErrAccountNotFound
	}
	return nil
}

var _ repositories.OAuthAccountRepository = (*OAuthAccountRepository)(nil)
