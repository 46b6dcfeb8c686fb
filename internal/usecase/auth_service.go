package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pricescan/backend/internal/domain"
)

// AuthService checks a username/password pair against the user store.
// Passwords are compared as stored; there are no sessions or tokens.
type AuthService struct {
	users domain.UserRepository
}

// NewAuthService creates an auth service. users may be nil when no
// database is configured; Login then reports ErrAuthUnavailable.
func NewAuthService(users domain.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Login returns the user when the credentials match
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.users == nil {
		return nil, domain.ErrAuthUnavailable
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user.Password != password {
		zerolog.Ctx(ctx).Info().Str("username", username).Msg("Login rejected: wrong password")
		return nil, domain.ErrInvalidPassword
	}

	return user, nil
}
