// Package auth registers accounts, checks passwords and issues API tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"meditrack/internal/logger"
	"meditrack/internal/models"
)

var log = logger.New("auth")

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("email and a password of at least 6 characters are required")
)

const minPasswordLen = 6

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewService(users UserStore, secret string, ttl time.Duration, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{users: users, secret: []byte(secret), ttl: ttl, clock: clock}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates an account. A taken email yields models.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, email, password, name string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || len(password) < minPasswordLen {
		return models.User{}, ErrInvalidInput
	}

	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return models.User{}, err
	}

	log.Info().Int64("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Login checks the credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, models.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(u.ID, s.secret, s.ttl, s.clock.Now())
	if err != nil {
		return "", models.User{}, fmt.Errorf("sign token: %w", err)
	}
	return token, u, nil
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(token string) (int64, error) {
	return ParseToken(token, s.secret, s.clock.Now())
}
