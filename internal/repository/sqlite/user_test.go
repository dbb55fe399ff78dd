package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/model"
)

func TestUserCreate_AssignsIDAndTimestamp(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Name: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("expected a generated id")
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
}

func TestUserCreate_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	mustSeedUser(t, db, "alice", "alice@example.com")

	err := db.Create(context.Background(), &model.User{
		Name: "impostor", Email: "alice@example.com", PasswordHash: "hash",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	seeded := mustSeedUser(t, db, "alice", "alice@example.com")

	got, err := db.GetByID(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "alice@example.com" || got.Name != "alice" {
		t.Errorf("got %+v, want the seeded user", got)
	}
}

func TestUserGetByID_Unknown(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	seeded := mustSeedUser(t, db, "alice", "alice@example.com")

	got, err := db.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != seeded.ID {
		t.Errorf("id = %s, want %s", got.ID, seeded.ID)
	}
	if got.PasswordHash != "hash" {
		t.Errorf("password hash not round-tripped: %q", got.PasswordHash)
	}
}

func TestUserGetByEmail_Unknown(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
