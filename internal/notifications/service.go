package notifications

import (
	"context"
	"errors"
	"strings"
)

// DefaultLimit bounds the feed when the caller does not ask for a size.
const DefaultLimit = 50

// RepositoryPort defines data access methods for notifications.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) (Notification, error)
	ListRecent(ctx context.Context, limit int) ([]Notification, error)
}

// Service handles notification feed logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a notification for a user.
func (s *Service) Create(ctx context.Context, n Notification) (Notification, error) {
	n.Title = strings.TrimSpace(n.Title)
	if n.UserID <= 0 || n.Title == "" {
		return Notification{}, errors.New("notifications: user and title required")
	}
	return s.repo.Insert(ctx, n)
}

// List returns up to limit notifications, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = DefaultLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
