package services

import (
	"context"
	"fmt"
	"time"

	"github.com/oneshotcoding/shotdeck/internal/auth/oauth"
	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
	"github.com/oneshotcoding/shotdeck/internal/pkg/idgen"
)

// IdentityService maps verified third-party identities onto the user
// graph: find-by-provider, create-from-oauth, link, unlink.
type IdentityService struct {
	userRepo    repositories.UserRepository
	accountRepo repositories.OAuthAccountRepository
}

// NewIdentityService creates a new identity service
func NewIdentityService(userRepo repositories.UserRepository, accountRepo repositories.OAuthAccountRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo, accountRepo: accountRepo}
}

// FindByProvider returns the user linked to a provider identity, or
// nil, nil when no link exists.
func (s *IdentityService) FindByProvider(ctx context.Context, provider, providerID string) (*entities.User, error) {
	return s.userRepo.GetByProvider(ctx, provider, providerID)
}

// CreateFromOAuth inserts a new user together with its first oauth account
// in one transaction; a failure leaves neither row behind.
func (s *IdentityService) CreateFromOAuth(ctx context.Context, provider string, profile *oauth.Profile) (*entities.User, error) {
	now := time.Now()
	user := &entities.User{
		ID:          idgen.GenerateID(),
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if profile.AvatarURL != "" {
		user.AvatarURL = &profile.AvatarURL
	}
	if profile.Email != "" {
		user.Email = &profile.Email
	}

	account := &entities.OAuthAccount{
		ID:         idgen.GenerateID(),
		UserID:     user.ID,
		Provider:   provider,
		ProviderID: profile.ProviderID,
		CreatedAt:  now,
	}
	if profile.Username != "" {
		account.ProviderUsername = &profile.Username
	}

	if err := s.userRepo.CreateWithAccount(ctx, user, account); err != nil {
		return nil, fmt.Errorf("failed to create user from oauth: %w", err)
	}
	return user, nil
}

// UpsertAccount inserts or refreshes the provider link for a user,
// touching only the denormalized provider username on conflict.
func (s *IdentityService) UpsertAccount(ctx context.Context, userID, provider, providerID, providerUsername string) error {
	account := &entities.OAuthAccount{
		ID:         idgen.GenerateID(),
		UserID:     userID,
		Provider:   provider,
		ProviderID: providerID,
		CreatedAt:  time.Now(),
	}
	if providerUsername != "" {
		account.ProviderUsername = &providerUsername
	}
	if err := s.accountRepo.Upsert(ctx, account); err != nil {
		return fmt.Errorf("failed to upsert oauth account: %w", err)
	}
	return nil
}

// UpsertLoginUser resolves-or-creates a user from a provider profile at
// login time. On repeat login the profile sync is deliberately partial:
// display name only when previously unset, avatar always, email only when
// the provider supplied one, and the provider username on the account row.
func (s *IdentityService) UpsertLoginUser(ctx context.Context, provider string, profile *oauth.Profile) (*entities.User, error) {
	user, err := s.FindByProvider(ctx, provider, profile.ProviderID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return s.CreateFromOAuth(ctx, provider, profile)
	}

	if user.DisplayName == "" {
		user.DisplayName = profile.DisplayName
	}
	if profile.AvatarURL != "" {
		user.AvatarURL = &profile.AvatarURL
	} else {
		user.AvatarURL = nil
	}
	if profile.Email != "" {
		user.Email = &profile.Email
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to sync user profile: %w", err)
	}

	if err := s.UpsertAccount(ctx, user.ID, provider, profile.ProviderID, profile.Username); err != nil {
		return nil, err
	}

	return user, nil
}

// Link attaches a provider identity to the acting user. If the identity
// already belongs to a different user the link is refused; silent
// re-linking would amount to an account takeover.
func (s *IdentityService) Link(ctx context.Context, actorID, provider string, profile *oauth.Profile) error {
	existing, err := s.FindByProvider(ctx, provider, profile.ProviderID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != actorID {
		return ErrAccountAlreadyLinked
	}
	return s.UpsertAccount(ctx, actorID, provider, profile.ProviderID, profile.Username)
}

// Unlink removes the user's link for one provider, refusing when it is
// the last one.
func (s *IdentityService) Unlink(ctx context.Context, userID, provider string) error {
	count, err := s.accountRepo.CountByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count oauth accounts: %w", err)
	}
	if count <= 1 {
		return ErrLastAccount
	}
	return s.accountRepo.Delete(ctx, userID, provider)
}

// ListAccounts returns a user's linked oauth accounts, oldest first
func (s *IdentityService) ListAccounts(ctx context.Context, userID string) ([]*entities.OAuthAccount, error) {
	return s.accountRepo.ListByUserID(ctx, userID)
}
