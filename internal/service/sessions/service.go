package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gobarber/backend/internal/auth"
	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/service"
	"gobarber/backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

type Session struct {
	Token string
	User  domain.User
}

type Service struct {
	users  store.UserRepository
	tokens TokenIssuer
	log    *slog.Logger
}

func NewService(users store.UserRepository, tokens TokenIssuer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:  users,
		tokens: tokens,
		log:    log.With(slog.String("component", "service.sessions")),
	}
}

// Create checks the credentials and issues a bearer token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Create(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Session{}, service.Validation("email is required")
	}
	if password == "" {
		return Session{}, service.Validation("password is required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Info("sign in rejected", slog.String("reason", "unknown_email"))
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		s.log.Info("sign in rejected", slog.String("reason", "bad_password"), slog.Int64("user_id", u.ID))
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: u}, nil
}
