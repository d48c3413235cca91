package notifications

import (
	"context"
	"errors"
	"testing"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
)

type fakeUsers struct {
	users map[int64]domain.User
}

func (f *fakeUsers) Create(ctx context.Context, u domain.User) (domain.User, error) {
	panic("Create not configured")
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	panic("GetByEmail not configured")
}

func (f *fakeUsers) ListProviders(ctx context.Context) ([]domain.User, error) {
	panic("ListProviders not configured")
}

type fakeRepo struct {
	listFn func(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
}

func (f *fakeRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	panic("Create not configured")
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if f.listFn == nil {
		panic("ListByUser not configured")
	}
	return f.listFn(ctx, userID, limit)
}

func TestList(t *testing.T) {
	users := &fakeUsers{users: map[int64]domain.User{
		1: {ID: 1, Provider: true},
		2: {ID: 2},
	}}
	var gotLimit int
	svc := NewService(users, &fakeRepo{
		listFn: func(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
			gotLimit = limit
			return []domain.Notification{{UserID: userID, Content: "hi"}}, nil
		},
	})

	out, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(out) != 1 || gotLimit != Limit {
		t.Fatalf("len = %d, limit = %d", len(out), gotLimit)
	}

	for _, id := range []int64{2, 3} {
		if _, err := svc.List(context.Background(), id); !errors.Is(err, ErrNotAProvider) {
			t.Fatalf("user %d err = %v, want %v", id, err, ErrNotAProvider)
		}
	}
}
