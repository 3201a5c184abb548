package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/oneshotcoding/shotdeck/internal/auth"
	"github.com/oneshotcoding/shotdeck/internal/auth/oauth"
	"github.com/oneshotcoding/shotdeck/internal/config"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
	"github.com/oneshotcoding/shotdeck/internal/domain/services"
)

// Cookie names the callback sets for browser clients. The access cookie
// doubles as the middleware's primary credential source.
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// Handler holds dependencies for all HTTP handlers
type Handler struct {
	cfg       *config.Config
	providers *oauth.Registry
	states    *oauth.StateStore
	identity  *services.IdentityService
	tokens    *services.TokenService
	users     repositories.UserRepository
	db        *sqlx.DB
	log       *slog.Logger
}

// New creates a new handler with dependencies
func New(
	cfg *config.Config,
	providers *oauth.Registry,
	states *oauth.StateStore,
	identity *services.IdentityService,
	tokens *services.TokenService,
	users repositories.UserRepository,
	db *sqlx.DB,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cfg:       cfg,
		providers: providers,
		states:    states,
		identity:  identity,
		tokens:    tokens,
		users:     users,
		db:        db,
		log:       logger.With(slog.String("component", "http_handler")),
	}
}

func (h *Handler) providerConfigured(name string) bool {
	switch name {
	case "github":
		return h.cfg.Auth.GitHub.Configured()
	case "twitter":
		return h.cfg.Auth.Twitter.Configured()
	}
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code string) {
	h.writeJSON(w, status, map[string]string{"error": code})
}

// setAuthCookies attaches both tokens as cookies so browser clients are
// authenticated without touching the query-string tokens.
func (h *Handler) setAuthCookies(w http.ResponseWriter, pair *auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cfg.Auth.AccessExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.cfg.Auth.RefreshExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cfg.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Health reports liveness and database reachability
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.log.Error("health check: database unreachable", slog.String("error", err.Error()))
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
