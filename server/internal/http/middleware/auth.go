package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oneshotcoding/shotdeck/internal/auth"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
)

// AccessTokenCookie is the cookie the OAuth callback sets for browser
// clients. When both the cookie and an Authorization header are present
// the cookie wins.
const AccessTokenCookie = "access_token"

// SessionGuard authenticates requests with the service's access tokens
type SessionGuard struct {
	jwt   *auth.JWTManager
	users repositories.UserRepository
	log   *slog.Logger
}

// NewSessionGuard creates a new session guard
func NewSessionGuard(jwt *auth.JWTManager, users repositories.UserRepository, logger *slog.Logger) *SessionGuard {
	return &SessionGuard{
		jwt:   jwt,
		users: users,
		log:   logger.With(slog.String("component", "session_guard")),
	}
}

// ExtractAccessToken pulls the access token from the request: the
// access_token cookie first, then a "Bearer" Authorization header.
// Returns "" when neither is present.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// Authenticate rejects requests without a valid access token. Missing,
// expired, malformed and wrong-type tokens all get the same 401 body so
// the response does not reveal which check failed.
func (g *SessionGuard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := g.verify(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
	})
}

// OptionalAuth attaches the user to the context when a valid access token
// is present and passes the request through either way.
func (g *SessionGuard) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := g.verify(r); ok {
			r = r.WithContext(auth.SetUserInContext(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose authenticated user is not an admin.
// Must be chained after Authenticate.
func (g *SessionGuard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.GetUserFromContext(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		row, err := g.users.GetByID(r.Context(), user.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			g.log.Error("admin check failed",
				slog.String("user_id", user.UserID),
				slog.String("error", err.Error()))
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !row.IsAdmin {
			writeJSONError(w, http.StatusForbidden, "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *SessionGuard) verify(r *http.Request) (*auth.UserContext, bool) {
	token := ExtractAccessToken(r)
	if token == "" {
		return nil, false
	}
	claims, err := g.jwt.VerifyToken(token, auth.TokenTypeAccess)
	if err != nil {
		g.log.Debug("access token rejected", slog.String("error", err.Error()))
		return nil, false
	}
	return &auth.UserContext{UserID: claims.UserID, Username: claims.Username}, true
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
