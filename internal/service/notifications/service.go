package notifications

import (
	"context"
	"errors"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
)

const Limit = 20

var ErrNotAProvider = errors.New("only providers can load notifications")

type Service struct {
	users store.UserRepository
	repo  store.NotificationRepository
}

func NewService(users store.UserRepository, repo store.NotificationRepository) *Service {
	return &Service{users: users, repo: repo}
}

// List returns the provider's newest notifications.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Notification, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotAProvider
		}
		return nil, err
	}
	if !u.Provider {
		return nil, ErrNotAProvider
	}
	return s.repo.ListByUser(ctx, userID, Limit)
}
