package store

import (
	"context"

	"gobarber/backend/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
}
