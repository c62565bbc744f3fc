package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "Reader@Example.com")
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "Reader@Example.com" {
		t.Errorf("Email: got %q", got.Email)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Errorf("PasswordHash mismatch")
	}
	if !got.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, user.CreatedAt)
	}
	if !got.LastLoginAt.IsZero() {
		t.Errorf("LastLoginAt should be zero, got %v", got.LastLoginAt)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "Reader@Example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "  reader@example.COM ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q", got.ID)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "dup@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := s.CreateUser(ctx, makeTestUser("user-2", "DUP@example.com"))
	if !errors.Is(err, store.ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("ErrEmailExists should match ErrAlreadyExists")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "old@example.com")
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	user.Email = "new@example.com"
	user.LastLoginAt = time.Now().UTC().Truncate(time.Millisecond)
	user.UpdatedAt = user.LastLoginAt
	if err := s.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if !got.LastLoginAt.Equal(user.LastLoginAt) {
		t.Errorf("LastLoginAt: got %v, want %v", got.LastLoginAt, user.LastLoginAt)
	}
	if _, err := s.GetUserByEmail(ctx, "old@example.com"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("old email should no longer resolve, got %v", err)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateUser(context.Background(), makeTestUser("ghost", "ghost@example.com"))
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ensureUser(t, s, "user-1")
	book := makeTestBook("book-1", "user-1")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	sess := makeTestSession(t, s, "sess-1", "user-1")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.SaveProfile(ctx, makeTestProfile("user-1")); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	if err := s.DeleteUser(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := s.GetBook(ctx, "book-1"); !errors.Is(err, store.ErrBookNotFound) {
		t.Errorf("book should be gone, got %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-1"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("session should be gone, got %v", err)
	}
	if _, err := s.GetProfile(ctx, "user-1"); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("profile should be gone, got %v", err)
	}
	if err := s.DeleteUser(ctx, "user-1"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("second delete: expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteUser_CascadesOnEveryPooledConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Holding one connection forces the remaining work onto other pool members.
	held, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer held.Close()

	var fk int
	if err := held.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d on held connection, want 1", fk)
	}

	ensureUser(t, s, "user-1")
	if err := s.CreateBook(ctx, makeTestBook("book-1", "user-1")); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if err := s.SaveProfile(ctx, makeTestProfile("user-1")); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := s.DeleteUser(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	var orphans int
	if err := held.QueryRowContext(ctx, "SELECT COUNT(*) FROM books WHERE owner_id = ?", "user-1").Scan(&orphans); err != nil {
		t.Fatalf("count books: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d books survived their owner", orphans)
	}
	if _, err := s.GetProfile(ctx, "user-1"); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("profile should be gone, got %v", err)
	}
}
