// Package client is the Go client for the shotdeck auth API. It carries
// the access token on every request and transparently refreshes an
// expired session, the same contract the front end implements in the
// browser.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
)

var (
	// ErrNotAuthenticated means no credentials are stored
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired means the refresh token was rejected and the
	// stored credentials have been cleared.
	ErrSessionExpired = errors.New("session expired, log in again")
)

// TokenStore holds the client's token pair. Implementations can keep it
// in memory, in a file, or anywhere else.
type TokenStore interface {
	// Tokens returns the stored pair; empty strings mean none stored
	Tokens() (access, refresh string, err error)

	// Save stores a new pair, replacing the old one
	Save(access, refresh string) error

	// Clear removes stored credentials
	Clear() error
}

// MemoryTokenStore keeps the pair in memory; used by tests and embedders
// that manage persistence themselves.
type MemoryTokenStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func NewMemoryTokenStore(access, refresh string) *MemoryTokenStore {
	return &MemoryTokenStore{access: access, refresh: refresh}
}

func (s *MemoryTokenStore) Tokens() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.refresh, nil
}

func (s *MemoryTokenStore) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = access, refresh
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.Save("", "")
}

// FileTokenStore persists the pair as a mode-0600 JSON file, for CLI use
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

type storedTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewFileTokenStore creates a file-backed store. An empty path defaults
// to ~/.config/shotdeck/tokens.json.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".config", "shotdeck", "tokens.json")
	}
	return &FileTokenStore{path: path}, nil
}

func (s *FileTokenStore) Tokens() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to read token file: %w", err)
	}
	var st storedTokens
	if err := json.Unmarshal(data, &st); err != nil {
		return "", "", fmt.Errorf("failed to parse token file: %w", err)
	}
	return st.AccessToken, st.RefreshToken, nil
}

func (s *FileTokenStore) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(storedTokens{AccessToken: access, RefreshToken: refresh}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// Client talks to the auth API
type Client struct {
	baseURL string
	store   TokenStore
	http    *http.Client
}

// New creates a client for the given API base URL
func New(baseURL string, store TokenStore) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		store:   store,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newRefreshTransport(http.DefaultTransport, store, baseURL+"/auth/refresh"),
		},
	}
}

// Me fetches the authenticated user's profile
func (c *Client) Me(ctx context.Context) (*entities.User, error) {
	var user entities.User
	if err := c.getJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Accounts lists the authenticated user's linked oauth accounts
func (c *Client) Accounts(ctx context.Context) ([]*entities.OAuthAccount, error) {
	var resp struct {
		Accounts []*entities.OAuthAccount `json:"accounts"`
	}
	if err := c.getJSON(ctx, "/auth/accounts", &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// Unlink removes the user's link for one provider
func (c *Client) Unlink(ctx context.Context, provider string) error {
	return c.do(ctx, http.MethodDelete, "/auth/accounts/"+provider, nil)
}

// Logout revokes the stored refresh token and clears local credentials
func (c *Client) Logout(ctx context.Context) error {
	_, refresh, err := c.store.Tokens()
	if err != nil {
		return err
	}
	body := map[string]string{"refreshToken": refresh}
	if err := c.do(ctx, http.MethodPost, "/auth/logout", body); err != nil {
		return err
	}
	return c.store.Clear()
}

// LogoutAll revokes every session the user holds, then clears local
// credentials.
func (c *Client) LogoutAll(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout-all", nil); err != nil {
		return err
	}
	return c.store.Clear()
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "" {
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("api error: status %d", resp.StatusCode)
}
