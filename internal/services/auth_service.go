package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger/internal/auth"
	"ledger/internal/storage"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so a
// login response never reveals which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles login sessions backed by the sessions table.
type AuthService struct {
	storage    *storage.Repository
	sessionTTL time.Duration
}

func NewAuthService(storage *storage.Repository, sessionTTL time.Duration) *AuthService {
	return &AuthService{storage: storage, sessionTTL: sessionTTL}
}

// Login verifies the credentials and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up user: %w", err)
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := auth.NewSessionToken()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(s.sessionTTL)
	if err := s.storage.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}

// ResolveSession maps a session token to a user id, or "" when the token is
// unknown or expired.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	return s.storage.GetSessionUser(ctx, token)
}
