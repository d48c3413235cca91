package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
)

type UserRepo struct {
	db bun.IDB
}

func NewUserRepo(db bun.IDB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	m := domain.User{
		Name:         strings.TrimSpace(u.Name),
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash: u.PasswordHash,
		Provider:     u.Provider,
		Avatar:       u.Avatar,
	}

	_, err := r.db.NewInsert().Model(&m).Returning("*").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return domain.User{}, store.ErrEmailTaken
		}
		return domain.User{}, err
	}
	return m, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return u, nil
}

func (r *UserRepo) ListProviders(ctx context.Context) ([]domain.User, error) {
	var rows []domain.User
	err := r.db.NewSelect().
		Model(&rows).
		Where("provider = TRUE").
		OrderExpr("name ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
}
