package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials and returns the
// principal to bind to the session. Every failure collapses to
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*shared.Principal, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	role, ok := rbac.ParseRole(account.AccessRole)
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}
	p := account.Principal()
	p.Role = string(role)
	return p, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, memberID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, memberID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
