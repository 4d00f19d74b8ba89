package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/invoicely/invoicely/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
	cost int
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, mostly to keep tests fast.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, email, password string) (*User, error) {
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("auth: password too short: %w", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, normalizeEmail(email), string(hash))
	if err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			return nil, shared.ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
