package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oneshotcoding/shotdeck/server/internal/http/middleware"
)

// Routes assembles the service's router. The guard is applied per route:
// OptionalAuth on flow starts (linking needs the acting user, plain login
// does not), Authenticate on everything session-scoped, RequireAdmin on
// the admin surface.
func (h *Handler) Routes(guard *middleware.SessionGuard) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Fixed paths first; mux matches in registration order and the flow
	// start route's {provider} would otherwise swallow them.
	r.Handle("/auth/me", guard.Authenticate(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
	r.Handle("/auth/accounts", guard.Authenticate(http.HandlerFunc(h.ListAccounts))).Methods(http.MethodGet)
	r.Handle("/auth/accounts/{provider}", guard.Authenticate(http.HandlerFunc(h.UnlinkAccount))).Methods(http.MethodDelete)
	r.Handle("/auth/logout-all", guard.Authenticate(http.HandlerFunc(h.LogoutAll))).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	r.Handle("/auth/{provider}", guard.OptionalAuth(http.HandlerFunc(h.Start))).Methods(http.MethodGet)
	r.HandleFunc("/auth/{provider}/callback", h.Callback).Methods(http.MethodGet)

	r.Handle("/admin/users", guard.Authenticate(guard.RequireAdmin(http.HandlerFunc(h.AdminListUsers)))).Methods(http.MethodGet)

	return r
}
