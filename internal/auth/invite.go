package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

type InviteState string

const (
	InviteActive  InviteState = "active"
	InviteUsed    InviteState = "used"
	InviteExpired InviteState = "expired"
)

type Invite struct {
	ID        int64  `json:"id"`
	Token     string `json:"token"`
	Email     string `json:"email,omitempty"`
	CreatedBy int64  `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
	Used      bool   `json:"used"`
	UsedBy    *int64 `json:"used_by,omitempty"`
	UsedAt    *int64 `json:"used_at,omitempty"`
}

// State is derived: expiry is never written, only compared against now.
func (i Invite) State(now time.Time) InviteState {
	switch {
	case i.Used:
		return InviteUsed
	case now.Unix() >= i.ExpiresAt:
		return InviteExpired
	default:
		return InviteActive
	}
}

// newToken returns 32 random bytes as unpadded URL-safe base64.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
