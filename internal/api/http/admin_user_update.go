package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-tutor/internal/auth"
)

// GET /admin/users?limit=&offset=
func ListUsersHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		users, err := m.ListUsers(r.Context(), parseIntDefault(q.Get("limit"), 100), parseIntDefault(q.Get("offset"), 0))
		if err != nil {
			failErr(w, r, err)
			return
		}
		if users == nil {
			users = []auth.User{}
		}
		ok(w, http.StatusOK, "", users)
	}
}

type updateUserRoleReq struct {
	IsAdmin *bool `json:"is_admin"`
}

// PATCH /admin/users/{userID}  { "is_admin": true }
func AdminUpdateUserRoleHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, valid := idParam(w, r, "userID")
		if !valid {
			return
		}
		var req updateUserRoleReq
		if !decode(w, r, &req) {
			return
		}
		if req.IsAdmin == nil {
			fail(w, http.StatusBadRequest, "is_admin required")
			return
		}
		u, err := m.SetAdmin(r.Context(), target, *req.IsAdmin)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "User updated.", u)
	}
}
