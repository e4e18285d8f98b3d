// Package auth handles registration, credential verification, and JWT issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/picstash/service/internal/config"
	"github.com/picstash/service/internal/user"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
// The two cases are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is a digest of an unguessable value. When login hits an unknown
// email, a comparison against it runs anyway so both failure paths cost one
// bcrypt verification.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("picstash-dummy-credential"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// Service contains the business logic for email/password authentication.
type Service struct {
	users *user.Service
	cfg   *config.Config
}

// NewService creates a new auth Service.
func NewService(users *user.Service, cfg *config.Config) *Service {
	return &Service{users: users, cfg: cfg}
}

// Register creates a new account. The caller receives the public identity only.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.Register(ctx, email, password)
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return nil, user.ErrAlreadyExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and mints a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// IssueToken creates a signed JWT carrying the user's id and email.
func (s *Service) IssueToken(u *user.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
