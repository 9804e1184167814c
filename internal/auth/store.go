package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	ID                  int64  `json:"id"`
	Username            string `json:"username"`
	Email               string `json:"email,omitempty"`
	IsAdmin             bool   `json:"is_admin"`
	SubscriptionActive  bool   `json:"subscription_active"`
	SubscriptionExpires *int64 `json:"subscription_expires,omitempty"`
	CreatedAt           int64  `json:"created_at"`
	passwordHash        string
}

func (u User) Role() string {
	if u.IsAdmin {
		return "admin"
	}
	return "student"
}

// SQLStore persists users and invite links.
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// AddUser returns ErrDuplicateUser when the username or email is taken.
func (s *SQLStore) AddUser(ctx context.Context, username, passwordHash, email string, isAdmin bool, now time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, email, is_admin, created_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		username, passwordHash, nullString(email), isAdmin, now.Unix()).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateUser
	}
	return id, err
}

const userColumns = `id, username, password_hash, email, is_admin, subscription_active, subscription_expires, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var email sql.NullString
	var subExp sql.NullInt64
	err := row.Scan(&u.ID, &u.Username, &u.passwordHash, &email, &u.IsAdmin, &u.SubscriptionActive, &subExp, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Email = email.String
	if subExp.Valid {
		u.SubscriptionExpires = &subExp.Int64
	}
	return u, nil
}

// UserByUsername matches case-sensitively.
func (s *SQLStore) UserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

func (s *SQLStore) UserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *SQLStore) IsAdmin(ctx context.Context, id int64) (bool, error) {
	var admin bool
	err := s.db.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE id=$1`, id).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrUserNotFound
	}
	return admin, err
}

func (s *SQLStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, passwordHash, id)
	return err
}

func (s *SQLStore) UpdateSubscription(ctx context.Context, id int64, active bool, expires time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET subscription_active=$1, subscription_expires=$2 WHERE id=$3`,
		active, expires.Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLStore) CreateInvite(ctx context.Context, inv Invite) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO invite_links (token, email, created_by, created_at, expires_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		inv.Token, nullString(inv.Email), inv.CreatedBy, inv.CreatedAt, inv.ExpiresAt).Scan(&id)
	return id, err
}

const inviteColumns = `id, token, email, created_by, created_at, expires_at, used, used_by, used_at`

func scanInvite(row interface{ Scan(...any) error }) (Invite, error) {
	var inv Invite
	var email sql.NullString
	var by, usedBy, usedAt sql.NullInt64
	if err := row.Scan(&inv.ID, &inv.Token, &email, &by, &inv.CreatedAt, &inv.ExpiresAt, &inv.Used, &usedBy, &usedAt); err != nil {
		return Invite{}, err
	}
	inv.Email, inv.CreatedBy = email.String, by.Int64
	if usedBy.Valid {
		inv.UsedBy = &usedBy.Int64
	}
	if usedAt.Valid {
		inv.UsedAt = &usedAt.Int64
	}
	return inv, nil
}

// InviteByToken returns sql.ErrNoRows when the token does not exist.
func (s *SQLStore) InviteByToken(ctx context.Context, token string) (Invite, error) {
	return scanInvite(s.db.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM invite_links WHERE token=$1`, token))
}

// UseInvite marks an unused, unexpired token as redeemed by userID. It
// reports false when the token is missing, used or expired.
func (s *SQLStore) UseInvite(ctx context.Context, token string, userID int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invite_links SET used=$1, used_by=$2, used_at=$3
		 WHERE token=$4 AND used=$5 AND expires_at > $6`,
		true, userID, now.Unix(), token, false, now.Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ActiveInvites lists the creator's unused, unexpired invites, newest first.
func (s *SQLStore) ActiveInvites(ctx context.Context, creatorID int64, now time.Time) ([]Invite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invite_links
		 WHERE created_by=$1 AND used=$2 AND expires_at > $3
		 ORDER BY created_at DESC, id DESC`, creatorID, false, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListUsers returns users ordered by id.
func (s *SQLStore) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin=$1`, true).Scan(&n)
	return n, err
}

func (s *SQLStore) SetAdmin(ctx context.Context, id int64, admin bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin=$1 WHERE id=$2`, admin, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
