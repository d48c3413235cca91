package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gobarber/backend/internal/auth"
	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/service"
	"gobarber/backend/internal/store"
)

type fakeRepo struct {
	createFn        func(ctx context.Context, u domain.User) (domain.User, error)
	listProvidersFn func(ctx context.Context) ([]domain.User, error)
}

func (f *fakeRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, u)
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	panic("GetByID not configured")
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	panic("GetByEmail not configured")
}

func (f *fakeRepo) ListProviders(ctx context.Context) ([]domain.User, error) {
	if f.listProvidersFn == nil {
		panic("ListProviders not configured")
	}
	return f.listProvidersFn(ctx)
}

func TestRegister_HashesPasswordAndNormalizesEmail(t *testing.T) {
	var stored domain.User
	svc := NewService(&fakeRepo{
		createFn: func(ctx context.Context, u domain.User) (domain.User, error) {
			stored = u
			u.ID = 7
			return u, nil
		},
	}, nil)

	u, err := svc.Register(context.Background(), RegisterInput{
		Name:     "  Ana ",
		Email:    " Ana@Example.com ",
		Password: "secret1",
		Provider: true,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.ID != 7 || !u.Provider {
		t.Fatalf("user = %+v", u)
	}
	if stored.Name != "Ana" || stored.Email != "ana@example.com" {
		t.Fatalf("stored name/email = %q/%q", stored.Name, stored.Email)
	}
	if stored.PasswordHash == "secret1" || !auth.CheckPassword(stored.PasswordHash, "secret1") {
		t.Fatalf("password was not hashed")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.com", Password: "secret1"}},
		{"missing email", RegisterInput{Name: "A", Password: "secret1"}},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "secret1"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.com", Password: "12345"}},
		{"password over bcrypt limit", RegisterInput{Name: "A", Email: "a@b.com", Password: strings.Repeat("p", MaxPasswordLen+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			var vErr *service.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T (%v), want *service.ValidationError", err, err)
			}
		})
	}
}

func TestRegister_AcceptsPasswordAtBcryptLimit(t *testing.T) {
	svc := NewService(&fakeRepo{
		createFn: func(ctx context.Context, u domain.User) (domain.User, error) {
			return u, nil
		},
	}, nil)

	pw := strings.Repeat("p", MaxPasswordLen)
	u, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.com", Password: pw})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !auth.CheckPassword(u.PasswordHash, pw) {
		t.Fatalf("stored hash does not match")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewService(&fakeRepo{
		createFn: func(ctx context.Context, u domain.User) (domain.User, error) {
			return domain.User{}, store.ErrEmailTaken
		},
	}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.com", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("err = %v, want %v", err, ErrUserExists)
	}
}

func TestListProviders(t *testing.T) {
	svc := NewService(&fakeRepo{
		listProvidersFn: func(ctx context.Context) ([]domain.User, error) {
			return []domain.User{{ID: 1, Name: "Ana", Provider: true}}, nil
		},
	}, nil)

	got, err := svc.ListProviders(context.Background())
	if err != nil {
		t.Fatalf("ListProviders error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ana" {
		t.Fatalf("providers = %+v", got)
	}
}
