package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type stubStore struct {
	users  map[string]*storage.User
	nextID int64
}

func newStubStore() *stubStore {
	return &stubStore{users: map[string]*storage.User{}, nextID: 1}
}

func (s *stubStore) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	if _, ok := s.users[username]; ok {
		return 0, errors.New("UNIQUE constraint failed: users.username")
	}
	id := s.nextID
	s.nextID++
	s.users[username] = &storage.User{ID: id, Username: username, Email: email, PasswordHash: passwordHash}
	return id, nil
}

func (s *stubStore) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError})
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
}

func newService(store *stubStore) *Service {
	tokens := NewTokenManager("test-secret", time.Hour, fixedNow)
	return NewService(store, tokens, testLogger())
}

func TestRegisterAndLogin(t *testing.T) {
	store := newStubStore()
	svc := newService(store)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected user ID 1, got %d", id)
	}
	if store.users["alice"].PasswordHash == "correct horse battery" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(store.users["alice"].PasswordHash), []byte("correct horse battery")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	token, err := svc.Login(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	gotID, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if gotID != id {
		t.Fatalf("expected token for user %d, got %d", id, gotID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(newStubStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "long enough pw"},
		{"empty email", "alice", "", "long enough pw"},
		{"short password", "alice", "a@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.username, tt.email, tt.password); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newService(newStubStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@example.com", "long enough pw"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "b@example.com", "long enough pw"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginRejections(t *testing.T) {
	svc := newService(newStubStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@example.com", "long enough pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "bob", "long enough pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	issued := fixedNow()
	clock := issued
	now := func() time.Time { return clock }

	tokens := NewTokenManager("test-secret", time.Hour, now)
	token, err := tokens.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if id, err := tokens.Verify(token); err != nil || id != 42 {
		t.Fatalf("expected valid token for user 42, got id=%d err=%v", id, err)
	}

	clock = issued.Add(2 * time.Hour)
	if _, err := tokens.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenForeignSecret(t *testing.T) {
	theirs := NewTokenManager("their-secret", time.Hour, fixedNow)
	ours := NewTokenManager("our-secret", time.Hour, fixedNow)

	token, err := theirs.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ours.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	if _, err := ours.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
