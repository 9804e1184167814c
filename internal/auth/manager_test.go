package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-tutor/internal/db"
	"golang.org/x/crypto/bcrypt"
)

type fakeIssuer struct{ lastID int64 }

func (f *fakeIssuer) IssueJWT(userID int64, role string) (string, error) {
	f.lastID = userID
	return "tok-" + role, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*Manager, *clock) {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbh.Close() })
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(NewSQLStore(dbh), &fakeIssuer{}, WithClock(c.now), WithBcryptCost(bcrypt.MinCost))
	return m, c
}

// unmarkableStore validates invites normally but fails to mark them used.
type unmarkableStore struct {
	*SQLStore
	err   error
	calls int
}

func (s *unmarkableStore) UseInvite(context.Context, string, int64, time.Time) (bool, error) {
	s.calls++
	return false, s.err
}

func TestRegisterKeepsAccountWhenInviteNotMarked(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"not updated", nil},
		{"store error", errors.New("database is locked")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			dbh, err := db.Open(ctx, db.DriverSQLite, ":memory:")
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { dbh.Close() })
			store := &unmarkableStore{SQLStore: NewSQLStore(dbh), err: tc.err}
			m := NewManager(store, &fakeIssuer{}, WithBcryptCost(bcrypt.MinCost))

			admin, err := m.Register(ctx, "admin", "password123", "", "")
			if err != nil {
				t.Fatal(err)
			}
			inv, err := m.GenerateInvite(ctx, admin.User.ID, "", 0)
			if err != nil {
				t.Fatal(err)
			}

			reg, err := m.Register(ctx, "bob", "password123", "", inv.Token)
			if err != nil {
				t.Fatalf("registration should succeed with a warning: %v", err)
			}
			if reg.Message != msgInviteNotMarked || reg.User.Username != "bob" || reg.User.IsAdmin {
				t.Fatalf("registration = %+v", reg)
			}
			if store.calls != 1 {
				t.Fatalf("UseInvite calls = %d", store.calls)
			}
			if _, err := m.Login(ctx, "bob", "password123"); err != nil {
				t.Fatalf("account should exist: %v", err)
			}
			// the invite was never marked, so it still validates
			if _, err := m.ValidateInvite(ctx, inv.Token); err != nil {
				t.Fatalf("invite state: %v", err)
			}
		})
	}
}

func TestFirstUserIsAdminSecondNeedsToken(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	reg, err := m.Register(ctx, "admin", "password123", "admin@example.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if !reg.User.IsAdmin || reg.Message != msgAdminRegistered {
		t.Fatalf("first registration = %+v", reg)
	}

	_, err = m.Register(ctx, "bob", "password123", "", "")
	if !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("second user without token: err = %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != "Invite token is required for registration." {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestInviteSingleUse(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	admin, err := m.Register(ctx, "admin", "password123", "", "")
	if err != nil {
		t.Fatal(err)
	}
	inv, err := m.GenerateInvite(ctx, admin.User.ID, "bob@example.com", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Token) != 43 || strings.ContainsAny(inv.Token, "+/=") {
		t.Fatalf("token %q is not 32 bytes of url-safe base64", inv.Token)
	}

	reg, err := m.Register(ctx, "bob", "password123", "bob@example.com", inv.Token)
	if err != nil {
		t.Fatal(err)
	}
	if reg.User.IsAdmin || reg.Message != msgRegistered {
		t.Fatalf("bob = %+v", reg)
	}

	if _, err := m.Register(ctx, "carol", "password123", "", inv.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("reused token: err = %v", err)
	}
	if ok, err := m.UseInvite(ctx, inv.Token, reg.User.ID); err != nil || ok {
		t.Fatalf("UseInvite on used token = %v, %v", ok, err)
	}
	active, err := m.ActiveInvites(ctx, admin.User.ID)
	if err != nil || len(active) != 0 {
		t.Fatalf("active invites = %v, %v", active, err)
	}
}

func TestInviteExpiry(t *testing.T) {
	ctx := context.Background()
	m, c := newTestManager(t)
	admin, _ := m.Register(ctx, "admin", "password123", "", "")
	inv, err := m.GenerateInvite(ctx, admin.User.ID, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if inv.State(c.now()) != InviteActive {
		t.Fatalf("fresh invite state = %s", inv.State(c.now()))
	}

	c.advance(24 * time.Hour)
	if inv.State(c.now()) != InviteExpired {
		t.Fatalf("state at expiry = %s", inv.State(c.now()))
	}
	if _, err := m.ValidateInvite(ctx, inv.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ValidateInvite: %v", err)
	}
	if ok, _ := m.UseInvite(ctx, inv.Token, admin.User.ID); ok {
		t.Fatal("expired token was redeemed")
	}
	if _, err := m.Register(ctx, "bob", "password123", "", inv.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("register with expired token: %v", err)
	}
}

func TestActiveInvitesNewestFirst(t *testing.T) {
	ctx := context.Background()
	m, c := newTestManager(t)
	admin, _ := m.Register(ctx, "admin", "password123", "", "")
	first, _ := m.GenerateInvite(ctx, admin.User.ID, "a@example.com", 7)
	c.advance(time.Minute)
	second, _ := m.GenerateInvite(ctx, admin.User.ID, "b@example.com", 7)

	got, err := m.ActiveInvites(ctx, admin.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Token != second.Token || got[1].Token != first.Token {
		t.Fatalf("active invites order = %+v", got)
	}
}

func TestNonAdminCannotInvite(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	admin, _ := m.Register(ctx, "admin", "password123", "", "")
	inv, _ := m.GenerateInvite(ctx, admin.User.ID, "", 0)
	bob, err := m.Register(ctx, "bob", "password123", "", inv.Token)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.GenerateInvite(ctx, bob.User.ID, "", 0); !errors.Is(err, ErrNotAdminInvite) {
		t.Fatalf("GenerateInvite by student: %v", err)
	}
	if _, err := m.ActiveInvites(ctx, bob.User.ID); !errors.Is(err, ErrNotAdminList) {
		t.Fatalf("ActiveInvites by student: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	cases := []struct {
		name, username, password string
		want                     error
	}{
		{"short username", "ab", "password123", ErrShortUsername},
		{"two multibyte characters", "éé", "password123", ErrShortUsername},
		{"short password", "abc", "short", ErrShortPassword},
		{"four multibyte characters", "abc", "ééé€", ErrShortPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.Register(ctx, tc.username, tc.password, "", ""); !errors.Is(err, tc.want) {
				t.Fatalf("Register(%q, %q) = %v, want %v", tc.username, tc.password, err, tc.want)
			}
		})
	}
	// lengths are counted in characters
	if _, err := m.Register(ctx, "éèê", "pässwörd", "", ""); err != nil {
		t.Fatalf("three-character username: %v", err)
	}

	admin, _ := m.Login(ctx, "éèê", "pässwörd")
	inv, _ := m.GenerateInvite(ctx, admin.User.ID, "", 0)
	if _, err := m.Register(ctx, "éèê", "password123", "", inv.Token); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("duplicate username: %v", err)
	}
	// the failed registration must not consume the invite
	if _, err := m.ValidateInvite(ctx, inv.Token); err != nil {
		t.Fatalf("invite consumed by failed registration: %v", err)
	}
}

func TestLoginGenericFailure(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	reg, _ := m.Register(ctx, "admin", "password123", "", "")

	s, err := m.Login(ctx, "admin", "password123")
	if err != nil {
		t.Fatal(err)
	}
	if s.Token != "tok-admin" || s.User.ID != reg.User.ID {
		t.Fatalf("session = %+v", s)
	}

	_, errWrongPass := m.Login(ctx, "admin", "wrong-password")
	_, errNoUser := m.Login(ctx, "nobody", "password123")
	_, errCase := m.Login(ctx, "Admin", "password123")
	for _, err := range []error{errWrongPass, errNoUser, errCase} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("want generic credentials error, got %v", err)
		}
	}
}

func TestChangePasswordAndSubscription(t *testing.T) {
	ctx := context.Background()
	m, c := newTestManager(t)
	reg, _ := m.Register(ctx, "admin", "password123", "", "")

	if err := m.ChangePassword(ctx, reg.User.ID, "nope-nope", "newpassword1"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong current password: %v", err)
	}
	if err := m.ChangePassword(ctx, reg.User.ID, "password123", "newpassword1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(ctx, "admin", "newpassword1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	exp, err := m.ActivateSubscription(ctx, reg.User.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := c.now().Add(30 * 24 * time.Hour); !exp.Equal(want) {
		t.Fatalf("expiry = %v, want %v", exp, want)
	}
	s, _ := m.Login(ctx, "admin", "newpassword1")
	if !s.User.SubscriptionActive || s.User.SubscriptionExpires == nil || *s.User.SubscriptionExpires != exp.Unix() {
		t.Fatalf("subscription not stored: %+v", s.User)
	}
}

func TestSetAdminKeepsLastAdmin(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	admin, _ := m.Register(ctx, "admin", "password123", "", "")
	if _, err := m.SetAdmin(ctx, admin.User.ID, false); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("demoting last admin: %v", err)
	}
	inv, _ := m.GenerateInvite(ctx, admin.User.ID, "", 0)
	bob, _ := m.Register(ctx, "bob", "password123", "", inv.Token)

	u, err := m.SetAdmin(ctx, bob.User.ID, true)
	if err != nil || !u.IsAdmin {
		t.Fatalf("promote bob = %+v, %v", u, err)
	}
	if _, err := m.SetAdmin(ctx, admin.User.ID, false); err != nil {
		t.Fatalf("demote with another admin present: %v", err)
	}
	users, err := m.ListUsers(ctx, 0, 0)
	if err != nil || len(users) != 2 || users[0].IsAdmin || !users[1].IsAdmin {
		t.Fatalf("users = %+v, %v", users, err)
	}
	if _, err := m.SetAdmin(ctx, 999, true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}
