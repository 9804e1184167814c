package auth

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError is a rejected request; Message is safe to show users.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

var (
	ErrInvalidCredentials = invalid("Invalid username or password.")
	ErrTokenRequired      = invalid("Invite token is required for registration.")
	ErrTokenInvalid       = invalid("Invalid or already used invite token.")
	ErrTokenExpired       = invalid("Invite token has expired.")
	ErrShortUsername      = invalid("Username must be at least 3 characters long.")
	ErrShortPassword      = invalid("Password must be at least 8 characters long.")
	ErrDuplicateUser      = invalid("Username or email already exists.")
	ErrNotAdminInvite     = invalid("Only administrators can generate invite links.")
	ErrNotAdminList       = invalid("Only administrators can view invite links.")
	ErrWrongPassword      = invalid("Incorrect current password.")
	ErrLastAdmin          = invalid("Cannot demote the last administrator.")
)

var ErrUserNotFound = errors.New("user not found")

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // sqlite
}
