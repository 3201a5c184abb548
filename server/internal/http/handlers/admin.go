package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oneshotcoding/shotdeck/internal/domain/entities"
)

const (
	defaultUserPageSize = 50
	maxUserPageSize     = 200
)

// AdminListUsers returns a page of users, newest first. Admin only; the
// session guard enforces that before this handler runs.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit := defaultUserPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxUserPageSize {
		limit = maxUserPageSize
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		h.log.Error("failed to list users", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []*entities.User{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}
