package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshTransport attaches the bearer token to every request and, on a
// 401, refreshes the pair and retries exactly once. Concurrent 401s share
// one refresh call through singleflight, so a burst of requests after the
// access token expires costs a single rotation instead of racing the
// rotation's single-winner check against itself.
type refreshTransport struct {
	base       http.RoundTripper
	store      TokenStore
	refreshURL string
	group      singleflight.Group

	// refreshClient calls the refresh endpoint directly, bypassing this
	// transport.
	refreshClient *http.Client
}

func newRefreshTransport(base http.RoundTripper, store TokenStore, refreshURL string) *refreshTransport {
	return &refreshTransport{
		base:          base,
		store:         store,
		refreshURL:    refreshURL,
		refreshClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	access, _, err := t.store.Tokens()
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, ErrNotAuthenticated
	}

	resp, err := t.send(req, access)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	resp.Body.Close()

	newAccess, err := t.refreshAccess(req.Context(), access)
	if err != nil {
		return nil, err
	}
	return t.send(req, newAccess)
}

// send issues the request with the given bearer token on a clone, so the
// original stays replayable for the post-refresh retry.
func (t *refreshTransport) send(req *http.Request, access string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	clone.Header.Set("Authorization", "Bearer "+access)
	return t.base.RoundTrip(clone)
}

// refreshAccess rotates the pair via the refresh endpoint. staleAccess is
// the token that just got a 401: when another caller already refreshed,
// the stored token differs from it and is returned as-is.
func (t *refreshTransport) refreshAccess(ctx context.Context, staleAccess string) (string, error) {
	v, err, _ := t.group.Do("refresh", func() (interface{}, error) {
		access, refresh, err := t.store.Tokens()
		if err != nil {
			return "", err
		}
		if access != "" && access != staleAccess {
			// Someone else won the refresh while we waited.
			return access, nil
		}
		if refresh == "" {
			return "", ErrNotAuthenticated
		}

		payload, err := json.Marshal(map[string]string{"refreshToken": refresh})
		if err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.refreshClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			_ = t.store.Clear()
			return "", ErrSessionExpired
		}
		if resp.StatusCode != http.StatusOK {
			return "", apiError(resp)
		}

		var pair struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
			return "", err
		}
		if err := t.store.Save(pair.AccessToken, pair.RefreshToken); err != nil {
			return "", err
		}
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
