package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/oneshotcoding/shotdeck/internal/config"
)

// TwitterProvider implements the PKCE-protected authorization-code grant.
// The token request carries a code_verifier and authenticates with HTTP
// Basic client credentials.
type TwitterProvider struct {
	oauth      oauth2.Config
	apiBaseURL string
}

// NewTwitterProvider creates the Twitter provider from configuration
func NewTwitterProvider(cfg config.ProviderConfig) *TwitterProvider {
	return &TwitterProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"tweet.read", "users.read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://twitter.com/i/oauth2/authorize",
				TokenURL: "https://api.twitter.com/2/oauth2/token",
				// Basic auth with client credentials, per the X API docs
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiBaseURL: "https://api.twitter.com",
	}
}

// OverrideEndpoints points the provider at a simulated upstream.
// Used by tests; never called in production wiring.
func (p *TwitterProvider) OverrideEndpoints(authURL, tokenURL, apiBaseURL string) {
	p.oauth.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInHeader}
	p.apiBaseURL = apiBaseURL
}

func (p *TwitterProvider) Name() string { return "twitter" }

func (p *TwitterProvider) UsesPKCE() bool { return true }

func (p *TwitterProvider) AuthCodeURL(state, codeVerifier string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", ChallengeS256(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *TwitterProvider) Exchange(ctx context.Context, code, codeVerifier string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	tok, err := p.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return "", ErrExchangeFailed
	}
	return tok.AccessToken, nil
}

// twitterUser is the payload of the /2/users/me response
type twitterUser struct {
	Data struct {
		ID              string `json:"id"`
		Username        string `json:"username"`
		Name            string `json:"name"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (p *TwitterProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	url := p.apiBaseURL + "/2/users/me?user.fields=profile_image_url,name"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetch, resp.StatusCode)
	}

	var tw twitterUser
	if err := json.NewDecoder(resp.Body).Decode(&tw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}

	displayName := tw.Data.Name
	if displayName == "" {
		displayName = tw.Data.Username
	}

	return &Profile{
		ProviderID:  tw.Data.ID,
		Username:    tw.Data.Username,
		DisplayName: displayName,
		AvatarURL:   tw.Data.ProfileImageURL,
		// Twitter does not expose an email with these scopes
	}, nil
}

var _ Provider = (*TwitterProvider)(nil)
