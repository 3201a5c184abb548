package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/oneshotcoding/shotdeck/internal/config"
)

func testProviderConfig() config.ProviderConfig {
	return config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "https://api.example.com/auth/cb",
	}
}

func TestGitHubAuthCodeURL(t *testing.T) {
	p := NewGitHubProvider(testProviderConfig())

	raw := p.AuthCodeURL("state-1", "")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad URL: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-1" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://api.example.com/auth/cb" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("code_challenge") != "" {
		t.Error("plain provider must not send a code challenge")
	}
}

func TestTwitterAuthCodeURLCarriesChallenge(t *testing.T) {
	p := NewTwitterProvider(testProviderConfig())

	verifier := mustVerifier(t)
	raw := p.AuthCodeURL("state-2", verifier)
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad URL: %v", err)
	}
	q := u.Query()
	if q.Get("code_challenge") != ChallengeS256(verifier) {
		t.Errorf("code_challenge = %q, want S256 of verifier", q.Get("code_challenge"))
	}
	if q.Get("code_challenge_method") != "S256" {
		t.Errorf("code_challenge_method = %q", q.Get("code_challenge_method"))
	}
	if q.Get("scope") == "" {
		t.Error("missing scope")
	}
}

// conformant provider simulation: the token endpoint only accepts the
// exact verifier whose S256 challenge was sent during authorization.
func TestTwitterExchangeSendsVerifierAndBasicAuth(t *testing.T) {
	verifier := mustVerifier(t)

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code_verifier") != verifier {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		if r.PostForm.Get("code") != "the-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-token",
			"token_type":   "bearer",
		})
	}))
	defer tokenSrv.Close()

	p := NewTwitterProvider(testProviderConfig())
	p.OverrideEndpoints(tokenSrv.URL+"/authorize", tokenSrv.URL, tokenSrv.URL)

	got, err := p.Exchange(context.Background(), "the-code", verifier)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if got != "provider-token" {
		t.Errorf("access token = %q", got)
	}

	// A different verifier must be rejected by the simulated provider.
	if _, err := p.Exchange(context.Background(), "the-code", mustVerifier(t)); err == nil {
		t.Error("exchange with wrong verifier should fail")
	}
}

func TestGitHubExchangeFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
	}))
	defer tokenSrv.Close()

	p := NewGitHubProvider(testProviderConfig())
	p.OverrideEndpoints(tokenSrv.URL+"/authorize", tokenSrv.URL, tokenSrv.URL)

	if _, err := p.Exchange(context.Background(), "stale-code", ""); err == nil {
		t.Error("expected exchange error")
	}
}

func TestGitHubFetchProfile(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":         12345,
			"login":      "octocat",
			"name":       "The Octocat",
			"avatar_url": "https://avatars.example.com/octocat",
			"email":      "octo@example.com",
		})
	}))
	defer apiSrv.Close()

	p := NewGitHubProvider(testProviderConfig())
	p.OverrideEndpoints(apiSrv.URL+"/authorize", apiSrv.URL+"/token", apiSrv.URL)

	profile, err := p.FetchProfile(context.Background(), "provider-token")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if profile.ProviderID != "12345" || profile.Username != "octocat" {
		t.Errorf("profile = %+v", profile)
	}
	if profile.DisplayName != "The Octocat" || profile.Email != "octo@example.com" {
		t.Errorf("profile = %+v", profile)
	}
}

func TestTwitterFetchProfileFailure(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer apiSrv.Close()

	p := NewTwitterProvider(testProviderConfig())
	p.OverrideEndpoints(apiSrv.URL+"/authorize", apiSrv.URL+"/token", apiSrv.URL)

	if _, err := p.FetchProfile(context.Background(), "whatever"); err == nil {
		t.Error("expected profile fetch error")
	}
}
