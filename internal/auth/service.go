// Package auth handles account registration, credential verification
// and bearer-token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid registration input")
	ErrUserExists         = errors.New("username or email already taken")
)

// UserStore is the slice of the repository the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*storage.User, error)
}

// Service registers accounts and exchanges credentials for tokens.
type Service struct {
	store  UserStore
	tokens *TokenManager
	logger *log.Logger
}

func NewService(store UserStore, tokens *TokenManager, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates an account with a bcrypt-hashed password and returns
// the new user ID.
func (s *Service) Register(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(password) < 8 {
		return 0, fmt.Errorf("%w: username, email and a password of at least 8 characters are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.CreateUser(ctx, username, email, string(hash))
	if err != nil {
		if storage.IsConstraintViolation(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}

	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, id)
	return id, nil
}

// Login verifies credentials and returns a signed token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, user.ID)
	return token, nil
}

// Verify exposes token verification for the HTTP middleware.
func (s *Service) Verify(token string) (int64, error) {
	return s.tokens.Verify(token)
}
