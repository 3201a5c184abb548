package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oneshotcoding/shotdeck/internal/auth"
	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
	"github.com/oneshotcoding/shotdeck/internal/domain/repositories"
	"github.com/oneshotcoding/shotdeck/internal/domain/services"
)

// ListAccounts returns the authenticated user's linked oauth accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	accounts, err := h.identity.ListAccounts(r.Context(), userCtx.UserID)
	if err != nil {
		h.log.Error("failed to list accounts",
			slog.String("user_id", userCtx.UserID),
			slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if accounts == nil {
		accounts = []*entities.OAuthAccount{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// UnlinkAccount removes the authenticated user's link for one provider.
// Removing the last link is refused; it would orphan the account.
func (h *Handler) UnlinkAccount(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	provider := mux.Vars(r)["provider"]
	if err := h.identity.Unlink(r.Context(), userCtx.UserID, provider); err != nil {
		switch {
		case errors.Is(err, services.ErrLastAccount):
			h.writeError(w, http.StatusBadRequest, "cannot_unlink_last_account")
		case errors.Is(err, repositories.ErrAccountNotFound):
			h.writeError(w, http.StatusNotFound, "account_not_found")
		default:
			h.log.Error("unlink failed",
				slog.String("user_id", userCtx.UserID),
				slog.String("provider", provider),
				slog.String("error", err.Error()))
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.log.Info("account unlinked",
		slog.String("user_id", userCtx.UserID),
		slog.String("provider", provider))
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
