package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
)

// RefreshTokenRepository implements repositories.RefreshTokenRepository
// for PostgreSQL
type RefreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository creates a new PostgreSQL refresh token repository
func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create persists a newly issued refresh token
func (r *RefreshTokenRepository) Create(ctx context.Context, token *entities.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// GetActive looks up a stored token that is neither revoked nor expired.
// Returns nil, nil when no such row exists.
func (r *RefreshTokenRepository) GetActive(ctx context.Context, userID, token string) (*entities.RefreshToken, error) {
	var rt entities.RefreshToken
	query := `
		SELECT id, user_id, token, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1 AND token = $2
		  AND revoked_at IS NULL
		  AND expires_at > NOW()
	`

	err := r.db.GetContext(ctx, &rt, query, userID, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &rt, nil
}

// Rotate revokes oldToken and inserts newToken in a single transaction.
// The revoke UPDATE only matches rows whose revoked_at is still NULL, so
// when two refreshes race on the same token exactly one of them revokes
// the row and commits; the loser sees zero rows affected and gets
// ErrTokenRevoked (or ErrTokenNotFound if the row never existed).
func (r *RefreshTokenRepository) Rotate(ctx context.Context, userID, oldToken string, newToken *entities.RefreshToken) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	revokeQuery := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND token = $2 AND revoked_at IS NULL
	`
	result, err := tx.ExecContext(ctx, revokeQuery, userID, oldToken)
	if err != nil {
		return fmt.Errorf("failed to revoke old refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE user_id = $1 AND token = $2)`
		if err := tx.GetContext(ctx, &exists, checkQuery, userID, oldToken); err != nil {
			return fmt.Errorf("failed to check refresh token existence: %w", err)
		}
		if exists {
			return repositories.ErrTokenRevoked
		}
		return repositories.ErrTokenNotFound
	}

	insertQuery := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		newToken.ID, newToken.UserID, newToken.Token, newToken.ExpiresAt, newToken.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rotated refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit token rotation: %w", err)
	}
	return nil
}

// Revoke marks one active refresh token as revoked. Already-revoked and
// unknown tokens are left alone.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, userID, token string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND token = $2 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAll revokes every active refresh token held by a user
func (r *RefreshTokenRepository) RevokeAll(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpiredAndRevoked removes rows that stopped mattering before the
// given cutoff: expired tokens and tokens revoked before it.
func (r *RefreshTokenRepository) DeleteExpiredAndRevoked(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

var _ repositories.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
