package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mind-engage/mindengage-tutor/internal/auth"
)

type registerReq struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	InviteToken string `json:"invite_token"`
}

// POST /auth/register
func RegisterHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if !decode(w, r, &req) {
			return
		}
		reg, err := m.Register(r.Context(), req.Username, req.Password, req.Email, req.InviteToken)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusCreated, reg.Message, reg.User)
	}
}

// POST /auth/login
func LoginHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		s, err := m.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "Login successful.", s)
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /users/change-password
func ChangePasswordHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		var req changePasswordReq
		if !decode(w, r, &req) {
			return
		}
		if req.NewPassword == "" {
			fail(w, http.StatusBadRequest, "new password required")
			return
		}
		if err := m.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "Password changed.", struct{}{})
	}
}

// POST /invites  { "email": "...", "expires_in_days": 7 }
func CreateInviteHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		var req struct {
			Email         string `json:"email"`
			ExpiresInDays int    `json:"expires_in_days"`
		}
		if !decode(w, r, &req) {
			return
		}
		inv, err := m.GenerateInvite(r.Context(), userID, req.Email, req.ExpiresInDays)
		if err != nil {
			failErr(w, r, err)
			return
		}
		days := int(time.Unix(inv.ExpiresAt, 0).Sub(time.Unix(inv.CreatedAt, 0)).Hours() / 24)
		ok(w, http.StatusCreated, fmt.Sprintf("Invite link generated successfully. Expires in %d days.", days), inv)
	}
}

// GET /invites
func ListInvitesHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		invites, err := m.ActiveInvites(r.Context(), userID)
		if err != nil {
			failErr(w, r, err)
			return
		}
		if invites == nil {
			invites = []auth.Invite{}
		}
		ok(w, http.StatusOK, "Active invites retrieved successfully.", invites)
	}
}

// POST /subscription  { "days": 30 }
func ActivateSubscriptionHandler(m *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		var req struct {
			Days int `json:"days"`
		}
		if r.ContentLength != 0 && !decode(w, r, &req) {
			return
		}
		exp, err := m.ActivateSubscription(r.Context(), userID, req.Days)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "Subscription activated successfully.", map[string]any{
			"expires_at": exp.Unix(),
		})
	}
}
