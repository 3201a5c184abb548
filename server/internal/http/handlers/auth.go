package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/oneshotcoding/shotdeck/internal/auth"
	"github.com/oneshotcoding/shotdeck/internal/auth/oauth"
	"github.com/oneshotcoding/shotdeck/internal/domain/services"
	"github.com/oneshotcoding/shotdeck/internal/pkg/urlutil"
)

// Error codes surfaced to the front end via the callback redirect.
const (
	errCSRFValidationFailed = "csrf_validation_failed"
	errTokenExchangeFailed  = "token_exchange_failed"
	errUserFetchFailed      = "user_fetch_failed"
	errMissingOAuthData     = "missing_oauth_data"
	errInvalidOAuthData     = "invalid_oauth_data"
	errAccountAlreadyLinked = "account_already_linked"
	errOAuthFailed          = "oauth_failed"
)

// Start begins the OAuth authorization flow for a provider. With
// ?link=true it starts an account-linking flow instead, which requires
// the caller to already be authenticated.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	provider, err := h.providers.Get(name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_provider")
		return
	}
	if !h.providerConfigured(name) {
		h.log.Error("oauth flow requested for unconfigured provider",
			slog.String("provider", name),
			slog.String("error", oauth.ErrNotConfigured.Error()))
		h.writeError(w, http.StatusInternalServerError, "provider_not_configured")
		return
	}

	tx := &oauth.StateTransaction{
		RedirectPath: urlutil.SanitizeRedirectPath(r.URL.Query().Get("redirect"), ""),
	}

	tx.State, err = oauth.GenerateState()
	if err != nil {
		h.log.Error("failed to generate state", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if provider.UsesPKCE() {
		tx.CodeVerifier, err = oauth.GenerateCodeVerifier()
		if err != nil {
			h.log.Error("failed to generate code verifier", slog.String("error", err.Error()))
			h.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	if r.URL.Query().Get("link") == "true" {
		user, err := auth.GetUserFromContext(r.Context())
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		tx.IsLink = true
		tx.UserID = user.UserID
	}

	if err := h.states.Write(w, r, name, tx); err != nil {
		h.log.Error("failed to write state cookie", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.log.Info("oauth flow started",
		slog.String("provider", name),
		slog.Bool("link", tx.IsLink))
	http.Redirect(w, r, provider.AuthCodeURL(tx.State, tx.CodeVerifier), http.StatusFound)
}

// Callback finishes the OAuth flow: CSRF check, code exchange, profile
// fetch, then either a link or a login. Every failure becomes a redirect
// to the front end with a stable error code; the browser never sees a
// bare error page.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	provider, err := h.providers.Get(name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_provider")
		return
	}

	q := r.URL.Query()

	// The state cookie is single-use: read it (and expire it) before any
	// other check so a replayed callback always fails.
	tx, ok := h.states.ReadAndClear(w, r, name)

	if q.Get("error") != "" {
		h.log.Warn("provider returned error",
			slog.String("provider", name),
			slog.String("provider_error", q.Get("error")))
		h.redirectError(w, r, errOAuthFailed)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.redirectError(w, r, errMissingOAuthData)
		return
	}

	// An absent state parameter is a CSRF failure, not missing data.
	state := q.Get("state")
	if state == "" || !ok || subtle.ConstantTimeCompare([]byte(state), []byte(tx.State)) != 1 {
		h.log.Warn("state validation failed", slog.String("provider", name))
		h.redirectError(w, r, errCSRFValidationFailed)
		return
	}

	providerToken, err := provider.Exchange(r.Context(), code, tx.CodeVerifier)
	if err != nil {
		h.log.Error("code exchange failed",
			slog.String("provider", name),
			slog.String("error", err.Error()))
		h.redirectError(w, r, errTokenExchangeFailed)
		return
	}

	profile, err := provider.FetchProfile(r.Context(), providerToken)
	if err != nil {
		h.log.Error("profile fetch failed",
			slog.String("provider", name),
			slog.String("error", err.Error()))
		h.redirectError(w, r, errUserFetchFailed)
		return
	}
	if profile.ProviderID == "" || profile.Username == "" {
		h.redirectError(w, r, errInvalidOAuthData)
		return
	}

	if tx.IsLink {
		h.finishLink(w, r, name, tx, profile)
		return
	}
	h.finishLogin(w, r, name, tx, profile)
}

func (h *Handler) finishLink(w http.ResponseWriter, r *http.Request, name string, tx *oauth.StateTransaction, profile *oauth.Profile) {
	if err := h.identity.Link(r.Context(), tx.UserID, name, profile); err != nil {
		if errors.Is(err, services.ErrAccountAlreadyLinked) {
			h.log.Warn("link refused: identity belongs to another user",
				slog.String("provider", name),
				slog.String("user_id", tx.UserID))
			http.Redirect(w, r, urlutil.BuildSettingsURL(h.cfg.FrontendURL, "error", errAccountAlreadyLinked), http.StatusFound)
			return
		}
		h.log.Error("link failed",
			slog.String("provider", name),
			slog.String("user_id", tx.UserID),
			slog.String("error", err.Error()))
		http.Redirect(w, r, urlutil.BuildSettingsURL(h.cfg.FrontendURL, "error", errOAuthFailed), http.StatusFound)
		return
	}

	h.log.Info("account linked",
		slog.String("provider", name),
		slog.String("user_id", tx.UserID))
	http.Redirect(w, r, urlutil.BuildSettingsURL(h.cfg.FrontendURL, "linked", name), http.StatusFound)
}

func (h *Handler) finishLogin(w http.ResponseWriter, r *http.Request, name string, tx *oauth.StateTransaction, profile *oauth.Profile) {
	user, err := h.identity.UpsertLoginUser(r.Context(), name, profile)
	if err != nil {
		h.log.Error("login upsert failed",
			slog.String("provider", name),
			slog.String("error", err.Error()))
		h.redirectError(w, r, errOAuthFailed)
		return
	}

	pair, err := h.tokens.Login(r.Context(), user.ID, user.Username)
	if err != nil {
		h.log.Error("token issuance failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()))
		h.redirectError(w, r, errOAuthFailed)
		return
	}

	target, err := urlutil.BuildCallbackSuccessURL(h.cfg.FrontendURL, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		h.log.Error("failed to build callback URL", slog.String("error", err.Error()))
		h.redirectError(w, r, errOAuthFailed)
		return
	}
	if tx.RedirectPath != "" {
		if u, err := url.Parse(target); err == nil {
			rq := u.Query()
			rq.Set("redirect", tx.RedirectPath)
			u.RawQuery = rq.Encode()
			target = u.String()
		}
	}

	h.setAuthCookies(w, pair)
	h.log.Info("login completed",
		slog.String("provider", name),
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, urlutil.BuildCallbackErrorURL(h.cfg.FrontendURL, code), http.StatusFound)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a valid refresh token for a fresh pair, rotating the
// stored token. The token comes from the JSON body, falling back to the
// refresh cookie for browser clients. All rejections share one 401 body.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		// A missing or non-JSON body is fine; the cookie may still carry
		// the token.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(refreshTokenCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		h.writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}

	pair, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			h.writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
			return
		}
		h.log.Error("refresh failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setAuthCookies(w, pair)
	h.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), userCtx.UserID)
	if err != nil {
		h.log.Error("failed to load user",
			slog.String("user_id", userCtx.UserID),
			slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// Logout revokes the presented refresh token and clears the auth cookies.
// Always succeeds; a missing or stale token still logs the browser out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(refreshTokenCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}

	if req.RefreshToken != "" {
		if err := h.tokens.Logout(r.Context(), req.RefreshToken); err != nil {
			h.log.Error("logout revocation failed", slog.String("error", err.Error()))
		}
	}

	h.clearAuthCookies(w)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LogoutAll revokes every refresh token the user holds, ending all
// sessions on all devices.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.tokens.RevokeAll(r.Context(), userCtx.UserID); err != nil {
		h.log.Error("logout-all failed",
			slog.String("user_id", userCtx.UserID),
			slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.clearAuthCookies(w)
	h.log.Info("all sessions revoked", slog.String("user_id", userCtx.UserID))
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
