package users

import (
	"context"
	"fmt"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

// ErrInvalidUserID is returned for non-positive user ids.
var ErrInvalidUserID = fmt.Errorf("%w: user id must be a positive integer", httpx.ErrValidation)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetCredits(ctx context.Context, userID int64) (Credits, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Credits returns the credit view for userID.
func (s *Service) Credits(ctx context.Context, userID int64) (Credits, error) {
	if userID <= 0 {
		return Credits{}, ErrInvalidUserID
	}
	return s.repo.GetCredits(ctx, userID)
}
