package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oneshotcoding/shotdeck/internal/auth"
	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
	"github.com/oneshotcoding/shotdeck/internal/pkg/idgen"
)

// TokenService issues and verifies the dual-token JWT scheme and owns the
// refresh token lifecycle: persist on login, rotate on use, revoke on
// logout-everywhere, sweep periodically.
type TokenService struct {
	jwt         *auth.JWTManager
	refreshRepo repositories.RefreshTokenRepository
}

// NewTokenService creates a new token service
func NewTokenService(jwt *auth.JWTManager, refreshRepo repositories.RefreshTokenRepository) *TokenService {
	return &TokenService{jwt: jwt, refreshRepo: refreshRepo}
}

// Issue signs an access/refresh pair for a user without persisting anything
func (s *TokenService) Issue(userID, username string) (*auth.TokenPair, error) {
	return s.jwt.GeneratePair(userID, username)
}

// PersistRefresh stores a refresh token row expiring after the configured
// refresh lifetime.
func (s *TokenService) PersistRefresh(ctx context.Context, userID, token string) error {
	row := &entities.RefreshToken{
		ID:        idgen.GenerateID(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwt.RefreshExpiry()),
		CreatedAt: time.Now(),
	}
	if err := s.refreshRepo.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return nil
}

// Login issues a pair and persists the refresh half; used at the end of a
// successful OAuth callback.
func (s *TokenService) Login(ctx context.Context, userID, username string) (*auth.TokenPair, error) {
	pair, err := s.Issue(userID, username)
	if err != nil {
		return nil, err
	}
	if err := s.PersistRefresh(ctx, userID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// ValidateRefresh reports whether an active row exists for the exact
// (userID, token) pair.
func (s *TokenService) ValidateRefresh(ctx context.Context, userID, token string) (bool, error) {
	row, err := s.refreshRepo.GetActive(ctx, userID, token)
	if err != nil {
		return false, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return row != nil, nil
}

// Refresh verifies a presented refresh token end to end, rotates it and
// returns a fresh pair. Every failure mode maps to ErrInvalidRefreshToken:
// an already-revoked token fails exactly like an unknown one.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwt.VerifyToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	active, err := s.ValidateRefresh(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.Issue(claims.UserID, claims.Username)
	if err != nil {
		return nil, err
	}

	newRow := &entities.RefreshToken{
		ID:        idgen.GenerateID(),
		UserID:    claims.UserID,
		Token:     pair.RefreshToken,
		ExpiresAt: time.Now().Add(s.jwt.RefreshExpiry()),
		CreatedAt: time.Now(),
	}
	if err := s.refreshRepo.Rotate(ctx, claims.UserID, refreshToken, newRow); err != nil {
		if errors.Is(err, repositories.ErrTokenRevoked) || errors.Is(err, repositories.ErrTokenNotFound) {
			// Lost a concurrent rotation race; the presented token is spent.
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return pair, nil
}

// Logout revokes the presented refresh token. A token that does not
// verify is silently ignored; logout never fails the user over a stale
// token.
func (s *TokenService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.VerifyToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil
	}
	if err := s.refreshRepo.Revoke(ctx, claims.UserID, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAll revokes every active refresh token for the user
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	if err := s.refreshRepo.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// SweepExpired deletes expired and revoked rows. Intended for periodic
// invocation, not the request path.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.refreshRepo.DeleteExpiredAndRevoked(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep refresh tokens: %w", err)
	}
	return deleted, nil
}
