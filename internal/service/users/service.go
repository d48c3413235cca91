package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"gobarber/backend/internal/auth"
	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/service"
	"gobarber/backend/internal/store"
)

const (
	MinPasswordLen = 6
	// bcrypt refuses longer inputs.
	MaxPasswordLen = 72
)

var ErrUserExists = errors.New("user already exists")

type Service struct {
	repo store.UserRepository
	log  *slog.Logger
}

func NewService(repo store.UserRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log.With(slog.String("component", "service.users"))}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Provider bool
}

func (in RegisterInput) normalize() RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

func (in RegisterInput) validate() error {
	if in.Name == "" {
		return service.Validation("name is required")
	}
	if in.Email == "" {
		return service.Validation("email is required")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return service.Validation("email is invalid")
	}
	if len(in.Password) < MinPasswordLen {
		return service.Validation(fmt.Sprintf("password must have at least %d characters", MinPasswordLen))
	}
	if len(in.Password) > MaxPasswordLen {
		return service.Validation(fmt.Sprintf("password must have at most %d bytes", MaxPasswordLen))
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Provider:     in.Provider,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}

	s.log.Info("user registered", slog.Int64("user_id", u.ID), slog.Bool("provider", u.Provider))
	return u, nil
}

func (s *Service) ListProviders(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListProviders(ctx)
}
