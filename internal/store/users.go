package store

import (
	"context"

	"gobarber/backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	ListProviders(ctx context.Context) ([]domain.User, error)
}
