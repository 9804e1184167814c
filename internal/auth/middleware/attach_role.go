package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/mind-engage/mindengage-tutor/internal/rbac"
)

// AdminLookup reports whether a user currently holds the admin flag.
type AdminLookup func(ctx context.Context, userID int64) (bool, error)

// AttachRoleFromDB replaces the role claim with the role stored for the
// subject, so a demoted admin loses access before the token expires.
// Unknown users are rejected.
func AttachRoleFromDB(isAdmin AdminLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := UserIDFromContext(ctx)
			if !ok {
				unauthorized(w, "invalid subject")
				return
			}
			admin, err := isAdmin(ctx, id)
			if err != nil {
				log.Printf("attach role: user %d: %v", id, err)
				unauthorized(w, "unknown user")
				return
			}
			role := "student"
			if admin {
				role = "admin"
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
		})
	}
}
