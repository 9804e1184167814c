package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mind-engage/mindengage-tutor/internal/activity"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsername = 3
	minPassword = 8

	msgRegistered      = "User registered successfully."
	msgAdminRegistered = "Administrator account registered successfully."
	msgInviteNotMarked = "User registered successfully, but there was an issue marking the invite token as used."
)

// Store is the persistence the manager needs. *SQLStore satisfies it.
type Store interface {
	CountUsers(ctx context.Context) (int, error)
	AddUser(ctx context.Context, username, passwordHash, email string, isAdmin bool, now time.Time) (int64, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	IsAdmin(ctx context.Context, id int64) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateSubscription(ctx context.Context, id int64, active bool, expires time.Time) error
	CreateInvite(ctx context.Context, inv Invite) (int64, error)
	InviteByToken(ctx context.Context, token string) (Invite, error)
	UseInvite(ctx context.Context, token string, userID int64, now time.Time) (bool, error)
	ActiveInvites(ctx context.Context, creatorID int64, now time.Time) ([]Invite, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountAdmins(ctx context.Context) (int, error)
	SetAdmin(ctx context.Context, id int64, admin bool) error
}

// TokenIssuer signs session tokens. *authmw.AuthService satisfies it.
type TokenIssuer interface {
	IssueJWT(userID int64, role string) (string, error)
}

type Recorder interface {
	Record(ctx context.Context, typ, ref string, userID int64, data any)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, string, int64, any) {}

type Manager struct {
	store   Store
	tokens  TokenIssuer
	events  Recorder
	now     func() time.Time
	cost    int
	invite  time.Duration
	subDays int

	dummyOnce sync.Once
	dummy     []byte
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithBcryptCost overrides the hashing cost (tests use bcrypt.MinCost).
func WithBcryptCost(cost int) Option { return func(m *Manager) { m.cost = cost } }

func WithInviteTTL(d time.Duration) Option { return func(m *Manager) { m.invite = d } }

func WithSubscriptionDays(days int) Option { return func(m *Manager) { m.subDays = days } }

func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.events = r
		}
	}
}

func NewManager(store Store, tokens TokenIssuer, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		tokens:  tokens,
		events:  nopRecorder{},
		now:     time.Now,
		cost:    12,
		invite:  7 * 24 * time.Hour,
		subDays: 30,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Registration is the outcome of a successful Register call.
type Registration struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

// Register creates an account. The first account needs no invite and becomes
// the administrator; every later one must present an active invite token.
func (m *Manager) Register(ctx context.Context, username, password, email, token string) (Registration, error) {
	n, err := m.store.CountUsers(ctx)
	if err != nil {
		return Registration{}, fmt.Errorf("count users: %w", err)
	}
	first := n == 0
	if !first {
		if token == "" {
			return Registration{}, ErrTokenRequired
		}
		if _, err := m.ValidateInvite(ctx, token); err != nil {
			return Registration{}, err
		}
	}
	if utf8.RuneCountInString(username) < minUsername {
		return Registration{}, ErrShortUsername
	}
	if utf8.RuneCountInString(password) < minPassword {
		return Registration{}, ErrShortPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return Registration{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := m.store.AddUser(ctx, username, string(hash), email, first, m.now())
	if err != nil {
		return Registration{}, err
	}

	msg := msgRegistered
	if first {
		msg = msgAdminRegistered
	} else if ok, err := m.UseInvite(ctx, token, id); err != nil || !ok {
		// The account stays; the caller sees a warning instead.
		log.Printf("auth: invite redemption for user %d failed: ok=%v err=%v", id, ok, err)
		msg = msgInviteNotMarked
	}

	u, err := m.store.UserByID(ctx, id)
	if err != nil {
		return Registration{}, fmt.Errorf("load user %d: %w", id, err)
	}
	m.events.Record(ctx, activity.UserRegistered, strconv.FormatInt(id, 10), id, map[string]any{
		"username": username,
		"is_admin": first,
	})
	return Registration{User: u, Message: msg}, nil
}

// Session is a logged-in user plus a bearer token.
type Session struct {
	Token string `json:"access_token"`
	User  User   `json:"user"`
}

// Login verifies credentials. Unknown users and wrong passwords produce the
// same error.
func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := m.store.UserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(m.dummyHash(), []byte(password))
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	tok, err := m.tokens.IssueJWT(u.ID, u.Role())
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: tok, User: u}, nil
}

func (m *Manager) dummyHash() []byte {
	m.dummyOnce.Do(func() {
		m.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), m.cost)
	})
	return m.dummy
}

// GenerateInvite creates a single-use invite. days <= 0 uses the default TTL.
func (m *Manager) GenerateInvite(ctx context.Context, creatorID int64, email string, days int) (Invite, error) {
	admin, err := m.store.IsAdmin(ctx, creatorID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return Invite{}, err
	}
	if !admin {
		return Invite{}, ErrNotAdminInvite
	}
	tok, err := newToken()
	if err != nil {
		return Invite{}, fmt.Errorf("generate token: %w", err)
	}
	ttl := m.invite
	if days > 0 {
		ttl = time.Duration(days) * 24 * time.Hour
	}
	now := m.now()
	inv := Invite{
		Token:     tok,
		Email:     email,
		CreatedBy: creatorID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	if inv.ID, err = m.store.CreateInvite(ctx, inv); err != nil {
		return Invite{}, fmt.Errorf("failed to generate invite link: %w", err)
	}
	m.events.Record(ctx, activity.InviteCreated, strconv.FormatInt(inv.ID, 10), creatorID, map[string]any{
		"email":      email,
		"expires_at": inv.ExpiresAt,
	})
	return inv, nil
}

// ActiveInvites lists the admin's unused, unexpired invites, newest first.
func (m *Manager) ActiveInvites(ctx context.Context, requesterID int64) ([]Invite, error) {
	admin, err := m.store.IsAdmin(ctx, requesterID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if !admin {
		return nil, ErrNotAdminList
	}
	invites, err := m.store.ActiveInvites(ctx, requesterID, m.now())
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve invite links: %w", err)
	}
	return invites, nil
}

// ValidateInvite returns the invite if it exists, is unused and unexpired.
func (m *Manager) ValidateInvite(ctx context.Context, token string) (Invite, error) {
	inv, err := m.store.InviteByToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return Invite{}, ErrTokenInvalid
	}
	if err != nil {
		return Invite{}, err
	}
	switch inv.State(m.now()) {
	case InviteUsed:
		return Invite{}, ErrTokenInvalid
	case InviteExpired:
		return Invite{}, ErrTokenExpired
	}
	return inv, nil
}

// UseInvite redeems a token for userID. It reports false when the token is
// missing, already used or expired.
func (m *Manager) UseInvite(ctx context.Context, token string, userID int64) (bool, error) {
	return m.store.UseInvite(ctx, token, userID, m.now())
}

// ActivateSubscription marks the user subscribed for days (default when <= 0)
// and returns the new expiry.
func (m *Manager) ActivateSubscription(ctx context.Context, userID int64, days int) (time.Time, error) {
	if days <= 0 {
		days = m.subDays
	}
	exp := m.now().Add(time.Duration(days) * 24 * time.Hour)
	if err := m.store.UpdateSubscription(ctx, userID, true, exp); err != nil {
		return time.Time{}, err
	}
	return exp, nil
}

// ChangePassword replaces the password after checking the current one.
func (m *Manager) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	u, err := m.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}
	if utf8.RuneCountInString(newPassword) < minPassword {
		return ErrShortPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), m.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return m.store.UpdatePassword(ctx, userID, string(hash))
}

// IsAdmin reports the stored admin flag; it backs the role middleware.
func (m *Manager) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return m.store.IsAdmin(ctx, userID)
}

func (m *Manager) User(ctx context.Context, userID int64) (User, error) {
	return m.store.UserByID(ctx, userID)
}

func (m *Manager) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	return m.store.ListUsers(ctx, limit, offset)
}

// SetAdmin grants or revokes the admin flag. The last admin cannot be demoted.
func (m *Manager) SetAdmin(ctx context.Context, userID int64, admin bool) (User, error) {
	u, err := m.store.UserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if u.IsAdmin && !admin {
		n, err := m.store.CountAdmins(ctx)
		if err != nil {
			return User{}, err
		}
		if n <= 1 {
			return User{}, ErrLastAdmin
		}
	}
	if err := m.store.SetAdmin(ctx, userID, admin); err != nil {
		return User{}, err
	}
	u.IsAdmin = admin
	return u, nil
}
