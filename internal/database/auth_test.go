package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateUserDuplicateUsername(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	_, err := db.CreateUser(context.Background(), "tester", "another-password")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	got, err := db.Authenticate(ctx, "tester", "secret-password")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user ID %d, got %d", user.ID, got.ID)
	}

	if _, err := db.Authenticate(ctx, "tester", "wrong-password"); err == nil {
		t.Error("expected error for wrong password")
	}

	if _, err := db.Authenticate(ctx, "nobody", "secret-password"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	session, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected non-empty session token")
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("expected session to expire in the future")
	}

	got, err := db.GetSession(ctx, session.Token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("expected session user %d, got %d", user.ID, got.UserID)
	}

	if err := db.DeleteSession(ctx, session.Token); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := db.GetSession(ctx, session.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetSessionUnknownToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	if _, err := db.GetSession(context.Background(), "no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	session, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := db.ResetPassword(ctx, "tester", "new-password"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := db.Authenticate(ctx, "tester", "secret-password"); err == nil {
		t.Error("old password still accepted after reset")
	}
	if _, err := db.Authenticate(ctx, "tester", "new-password"); err != nil {
		t.Errorf("new password rejected after reset: %v", err)
	}

	// Sessions do not survive a password reset.
	if _, err := db.GetSession(ctx, session.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected session to be invalidated, got %v", err)
	}

	if err := db.ResetPassword(ctx, "nobody", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}
