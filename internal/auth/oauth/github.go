package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	githubep "golang.org/x/oauth2/github"

	"github.com/oneshotcoding/shotdeck/internal/config"
)

// httpClient bounds every outbound provider call; a timeout degrades to
// the same redirect outcome as any other callback failure.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// GitHubProvider implements the plain authorization-code grant.
// Client credentials travel in the token request body; no PKCE.
type GitHubProvider struct {
	oauth      oauth2.Config
	apiBaseURL string
}

// NewGitHubProvider creates the GitHub provider from configuration
func NewGitHubProvider(cfg config.ProviderConfig) *GitHubProvider {
	return &GitHubProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     githubep.Endpoint,
		},
		apiBaseURL: "https://api.github.com",
	}
}

// OverrideEndpoints points the provider at a simulated upstream.
// Used by tests; never called in production wiring.
func (p *GitHubProvider) OverrideEndpoints(authURL, tokenURL, apiBaseURL string) {
	p.oauth.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	p.apiBaseURL = apiBaseURL
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) UsesPKCE() bool { return false }

func (p *GitHubProvider) AuthCodeURL(state, _ string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *GitHubProvider) Exchange(ctx context.Context, code, _ string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return "", ErrExchangeFailed
	}
	return tok.AccessToken, nil
}

// githubUser is the subset of the GitHub /user response the service needs
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

func (p *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetch, resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}

	displayName := gh.Name
	if displayName == "" {
		displayName = gh.Login
	}

	return &Profile{
		ProviderID:  strconv.FormatInt(gh.ID, 10),
		Username:    gh.Login,
		DisplayName: displayName,
		AvatarURL:   gh.AvatarURL,
		Email:       gh.Email,
	}, nil
}

var _ Provider = (*GitHubProvider)(nil)
