package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"gobarber/backend/internal/domain"
)

type NotificationRepo struct {
	db bun.IDB
}

func NewNotificationRepo(db bun.IDB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	return insertNotification(ctx, r.db, n)
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	var rows []domain.Notification
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func insertNotification(ctx context.Context, db bun.IDB, n domain.Notification) (domain.Notification, error) {
	m := domain.Notification{
		ID:      n.ID,
		UserID:  n.UserID,
		Content: n.Content,
		Read:    n.Read,
	}
	if _, err := db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Notification{}, err
	}
	return m, nil
}
