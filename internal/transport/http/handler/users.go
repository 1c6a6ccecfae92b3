package handler

import (
	"net/http"
	"strconv"

	"github.com/agribiz-identity/internal/application/profile"
)

// UserHandler serves admin user listings.
type UserHandler struct {
	svc profile.Service
}

func NewUserHandler(svc profile.Service) *UserHandler { return &UserHandler{svc: svc} }

// List returns accounts with the role given in ?role=, paginated by ?limit= and ?cursor=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role := q.Get("role")
	if role == "" {
		writeError(w, http.StatusBadRequest, "role query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	users, next, err := h.svc.ListByRole(r.Context(), role, limit, q.Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersPageEnvelope{Data: users, NextCursor: next})
}
