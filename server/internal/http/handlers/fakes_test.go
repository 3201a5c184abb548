package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
)

// In-memory repositories backing the handler tests. Same semantics as the
// SQL implementations, including single-winner rotation.

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]*entities.User
	accounts *fakeAccountRepo
}

func newFakeUserRepo(accounts *fakeAccountRepo) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entities.User), accounts: accounts}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*entities.User, error) {
	account := r.accounts.find(provider, providerID)
	if account == nil {
		return nil, nil
	}
	return r.GetByID(ctx, account.UserID)
}

func (r *fakeUserRepo) CreateWithAccount(_ context.Context, user *entities.User, account *entities.OAuthAccount) error {
	r.mu.Lock()
	cp := *user
	r.users[user.ID] = &cp
	r.mu.Unlock()
	return r.accounts.Upsert(context.Background(), account)
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*entities.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		users = append(users, &cp)
	}
	return users, nil
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

type fakeAccountRepo struct {
	mu   sync.Mutex
	rows []*entities.OAuthAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{}
}

func (r *fakeAccountRepo) find(provider, providerID string) *entities.OAuthAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.Provider == provider && a.ProviderID == providerID {
			cp := *a
			return &cp
		}
	}
	return nil
}

func (r *fakeAccountRepo) Upsert(_ context.Context, account *entities.OAuthAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.Provider == account.Provider && a.ProviderID == account.ProviderID {
			a.ProviderUsername = account.ProviderUsername
			return nil
		}
	}
	cp := *account
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeAccountRepo) ListByUserID(_ context.Context, userID string) ([]*entities.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.OAuthAccount
	for _, a := range r.rows {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) CountByUserID(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.rows {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.rows {
		if a.UserID == userID && a.Provider == provider {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrAccountNotFound
}

var _ repositories.OAuthAccountRepository = (*fakeAccountRepo)(nil)

type fakeRefreshRepo struct {
	mu   sync.Mutex
	rows map[string]*entities.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{rows: make(map[string]*entities.RefreshToken)}
}

func (r *fakeRefreshRepo) Create(_ context.Context, token *entities.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.rows[token.Token] = &cp
	return nil
}

func (r *fakeRefreshRepo) GetActive(_ context.Context, userID, token string) (*entities.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[token]
	if !ok || row.UserID != userID || !row.IsActive() {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeRefreshRepo) Rotate(_ context.Context, userID, oldToken string, newToken *entities.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[oldToken]
	if !ok || row.UserID != userID {
		return repositories.ErrTokenNotFound
	}
	if row.IsRevoked() {
		return repositories.ErrTokenRevoked
	}
	row.Revoke()
	cp := *newToken
	r.rows[newToken.Token] = &cp
	return nil
}

func (r *fakeRefreshRepo) Revoke(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[token]
	if ok && row.UserID == userID && !row.IsRevoked() {
		row.Revoke()
	}
	return nil
}

func (r *fakeRefreshRepo) RevokeAll(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == userID && !row.IsRevoked() {
			row.Revoke()
		}
	}
	return nil
}

func (r *fakeRefreshRepo) DeleteExpiredAndRevoked(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for token, row := range r.rows {
		if row.IsRevoked() || row.ExpiresAt.Before(before) {
			delete(r.rows, token)
			deleted++
		}
	}
	return deleted, nil
}

var _ repositories.RefreshTokenRepository = (*fakeRefreshRepo)(nil)
