package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/auth"
)

func newTestAuthService(t *testing.T) (*AuthService, *memStore) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", time.Hour)
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	store := newMemStore()
	svc := NewAuthService(store, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
	return svc, store
}

func TestSignup_CreatesUserAndIssuesToken(t *testing.T) {
	svc, store := newTestAuthService(t)

	result, err := svc.Signup(context.Background(), "alice", "Alice@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased alice@example.com", result.User.Email)
	}
	if result.User.PasswordHash == "secret1" {
		t.Error("password stored in the clear")
	}
	if _, err := store.GetByEmail(context.Background(), "alice@example.com"); err != nil {
		t.Errorf("user not persisted: %v", err)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, store := newTestAuthService(t)

	if _, err := svc.Signup(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	_, err := svc.Signup(context.Background(), "alice2", "alice@example.com", "secret2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
	if len(store.users) != 1 {
		t.Errorf("store has %d users after duplicate signup, want 1", len(store.users))
	}
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name            string
		username, email string
		password        string
	}{
		{"username too short", "ab", "a@example.com", "secret1"},
		{"username too long", "abcdefghijklmnopqrstuvwxyzabcde", "a@example.com", "secret1"},
		{"username not alphanumeric", "al ice!", "a@example.com", "secret1"},
		{"bad email", "alice", "not-an-email", "secret1"},
		{"empty email", "alice", "", "secret1"},
		{"password too short", "alice", "a@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Signup(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	result, err := svc.Login(context.Background(), "ALICE@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User.Name != "alice" {
		t.Errorf("user name = %q, want alice", result.User.Name)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Signup(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	result, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want validation error", err)
	}
	if result != nil {
		t.Error("wrong password must never yield a token")
	}
}

func TestLogin_UnknownEmailSameErrorAsWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Signup(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "secret1")
	_, errWrongPw := svc.Login(context.Background(), "alice@example.com", "wrong")

	if errUnknown == nil || errWrongPw == nil {
		t.Fatal("both logins should fail")
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("unknown email and wrong password leak different errors: %q vs %q",
			errUnknown.Error(), errWrongPw.Error())
	}
}

func TestGetUser(t *testing.T) {
	svc, store := newTestAuthService(t)
	seeded := seedUser(t, store, "alice", "alice@example.com")

	user, err := svc.GetUser(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", user.Email)
	}
}

func TestGetUser_UnknownIDIsUnauthorized(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.GetUser(context.Background(), "user-gone")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("error = %v, want unauthorized", err)
	}
}
