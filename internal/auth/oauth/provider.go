package oauth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the provider is missing client credentials.
	// This is a deployment problem, not a client error.
	ErrNotConfigured = errors.New("oauth provider not configured")

	// ErrExchangeFailed means the provider rejected the authorization code
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrProfileFetch means the provider's profile endpoint failed
	ErrProfileFetch = errors.New("profile fetch failed")
)

// Profile is the normalized identity a provider reports for the
// authenticated user.
type Profile struct {
	ProviderID  string
	Username    string
	DisplayName string
	AvatarURL   string
	Email       string
}

// Provider abstracts one OAuth2 identity provider. The two grant shapes
// the service supports (plain authorization-code and PKCE-protected
// authorization-code) share the same flow skeleton; only the
// challenge/verifier handling and the token-endpoint authentication
// method differ per implementation.
type Provider interface {
	// Name returns the provider identifier used in URLs ("github", "twitter")
	Name() string

	// UsesPKCE reports whether the provider requires an S256 code challenge
	UsesPKCE() bool

	// AuthCodeURL builds the provider authorization URL. codeVerifier is
	// ignored by non-PKCE providers.
	AuthCodeURL(state, codeVerifier string) string

	// Exchange swaps the authorization code for a provider access token.
	// codeVerifier is ignored by non-PKCE providers.
	Exchange(ctx context.Context, code, codeVerifier string) (string, error)

	// FetchProfile fetches the provider's "who am I" profile with the
	// provider access token obtained from Exchange.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Registry holds the configured providers keyed by name
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return p, nil
}

// Names returns all registered provider names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
