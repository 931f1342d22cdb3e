// Package auth implements email/password authentication with JWT sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibeditor/backend/internal/config"
	"github.com/vibeditor/backend/internal/user"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned when the email or password is wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service contains the business logic for authentication.
type Service struct {
	users *user.Repository
	cfg   *config.Config
}

// NewService creates a new auth Service.
func NewService(users *user.Repository, cfg *config.Config) *Service {
	return &Service{users: users, cfg: cfg}
}

// Register creates a new user account and issues a JWT token.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (string, *user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, email, string(hash), displayName)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Login verifies the credentials and issues a JWT token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Profile fetches the account for the given user ID.
func (s *Service) Profile(ctx context.Context, userID string) (*user.User, error) {
	return s.users.GetByID(ctx, userID)
}

// issueToken creates a signed JWT for the given user.
func (s *Service) issueToken(u *user.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"plan":  u.Plan,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
