package cache

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
)

// Users memoizes lookups by id in front of a UserRepository. Users are never
// updated, so entries stay valid until evicted. lru.Cache does its own locking.
type Users struct {
	next  store.UserRepository
	cache *lru.Cache[int64, domain.User]
	log   *slog.Logger
}

func NewUsers(next store.UserRepository, size int, log *slog.Logger) (*Users, error) {
	if log == nil {
		log = slog.Default()
	}
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[int64, domain.User](size)
	if err != nil {
		return nil, err
	}
	return &Users{
		next:  next,
		cache: c,
		log:   log.With(slog.String("component", "cache.users")),
	}, nil
}

func (u *Users) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := u.next.Create(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	u.store(created)
	return created, nil
}

func (u *Users) GetByID(ctx context.Context, id int64) (domain.User, error) {
	if cached, ok := u.cache.Get(id); ok {
		u.log.Debug("cache hit", slog.Int64("user_id", id))
		return cached, nil
	}

	user, err := u.next.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	u.store(user)
	return user, nil
}

func (u *Users) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := u.next.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	u.store(user)
	return user, nil
}

func (u *Users) ListProviders(ctx context.Context) ([]domain.User, error) {
	return u.next.ListProviders(ctx)
}

func (u *Users) Len() int {
	return u.cache.Len()
}

func (u *Users) store(user domain.User) {
	u.cache.Add(user.ID, user)
}
